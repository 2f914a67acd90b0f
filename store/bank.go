package store

import (
	"sort"
	"time"
)

// TeachBank records reply as an answer to the normalized prompt key.
// Teaching an existing reply bumps its count; each key keeps at most
// MaxBankEntries replies ordered by count, most recently used first on ties.
func (s *State) TeachBank(key, reply string, now time.Time) {
	if key == "" || reply == "" {
		return
	}
	entries := s.Bank[key]
	found := false
	for i := range entries {
		if entries[i].Reply == reply {
			entries[i].Count++
			entries[i].LastUsed = now
			found = true
			break
		}
	}
	if !found {
		entries = append(entries, BankEntry{Reply: reply, Count: 1, LastUsed: now})
	}
	sortBank(entries)
	if len(entries) > MaxBankEntries {
		entries = entries[:MaxBankEntries]
	}
	s.Bank[key] = entries
}

// ForgetBankReply removes reply from every bank key and reports how many entries were dropped.
func (s *State) ForgetBankReply(reply string) int {
	removed := 0
	for key, entries := range s.Bank {
		kept := entries[:0]
		for _, e := range entries {
			if e.Reply == reply {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(s.Bank, key)
			continue
		}
		s.Bank[key] = kept
	}
	return removed
}

func sortBank(entries []BankEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].LastUsed.After(entries[j].LastUsed)
	})
}
