package store

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Tag names one independently persisted section of the state tree.
type Tag string

const (
	TagCore         Tag = "core"
	TagInteractions Tag = "interactions"
	TagLanguage     Tag = "language"
	TagNeural       Tag = "neural"
	TagKnowledge    Tag = "knowledge"
)

// AllTags lists every section in load order.
var AllTags = []Tag{TagCore, TagInteractions, TagLanguage, TagNeural, TagKnowledge}

// Valid reports whether t is a known section tag.
func (t Tag) Valid() bool {
	for _, known := range AllTags {
		if t == known {
			return true
		}
	}
	return false
}

type coreSection struct {
	Sessions map[string]*Session    `json:"sessions"`
	Stats    Stats                  `json:"stats"`
	Trainer  TrainerCursor          `json:"trainer"`
	Bank     map[string][]BankEntry `json:"responseBank"`
	Facts    map[string]Fact        `json:"learnedFacts"`
	Lessons  map[string]Lesson      `json:"starterLessons"`
}

type languageSection struct {
	Tokens       TokenGraph             `json:"tokenGraph"`
	Concepts     map[string]ConceptStat `json:"conceptGraph"`
	Associations AssociationGraph       `json:"associationGraph"`
}

// MarshalSection encodes the part of the state owned by tag.
func (s *State) MarshalSection(tag Tag) ([]byte, error) {
	var v any
	switch tag {
	case TagCore:
		v = coreSection{Sessions: s.Sessions, Stats: s.Stats, Trainer: s.Trainer, Bank: s.Bank, Facts: s.Facts, Lessons: s.Lessons}
	case TagInteractions:
		v = s.Interactions
	case TagLanguage:
		v = languageSection{Tokens: s.Tokens, Concepts: s.Concepts, Associations: s.Associations}
	case TagNeural:
		v = s.Neural
	case TagKnowledge:
		v = s.Web
	default:
		return nil, errors.Errorf("unknown section %q", tag)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal section %s", tag)
	}
	return data, nil
}

// UnmarshalSection decodes data into the part of the state owned by tag.
func (s *State) UnmarshalSection(tag Tag, data []byte) error {
	var err error
	switch tag {
	case TagCore:
		var core coreSection
		if err = json.Unmarshal(data, &core); err == nil {
			s.Sessions, s.Stats, s.Trainer = core.Sessions, core.Stats, core.Trainer
			s.Bank, s.Facts, s.Lessons = core.Bank, core.Facts, core.Lessons
		}
	case TagInteractions:
		err = json.Unmarshal(data, &s.Interactions)
	case TagLanguage:
		var lang languageSection
		if err = json.Unmarshal(data, &lang); err == nil {
			s.Tokens, s.Concepts, s.Associations = lang.Tokens, lang.Concepts, lang.Associations
		}
	case TagNeural:
		err = json.Unmarshal(data, &s.Neural)
	case TagKnowledge:
		err = json.Unmarshal(data, &s.Web)
	default:
		return errors.Errorf("unknown section %q", tag)
	}
	return errors.Wrapf(err, "failed to unmarshal section %s", tag)
}
