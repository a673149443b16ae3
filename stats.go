package hako

// Stats is a snapshot of a World's storage.
type Stats struct {
	Frame      uint64           `json:"frame"`
	Entities   int              `json:"entities"`
	Allocated  int              `json:"allocated"`
	Workers    int              `json:"workers"`
	PageSize   int              `json:"page_size"`
	Queries    int              `json:"queries"`
	LastFrame  FrameStats       `json:"last_frame"`
	Archetypes []ArchetypeStats `json:"archetypes"`
}

// ArchetypeStats describes one archetype.
type ArchetypeStats struct {
	Index      int      `json:"index"`
	Components []string `json:"components"`
	Entities   int      `json:"entities"`
	Pages      int      `json:"pages"`
}

// Stats returns a snapshot of w. It must not overlap with ExecuteCommands.
func (w *World) Stats() Stats {
	s := Stats{
		Frame:      w.frame,
		Entities:   w.placed,
		Allocated:  w.entities.Len(),
		Workers:    len(w.buffers),
		PageSize:   w.opts.pageSize,
		LastFrame:  w.last,
		Archetypes: make([]ArchetypeStats, 0, len(w.archetypes)),
	}
	w.queryMu.Lock()
	for _, c := range w.caches {
		if c != nil {
			s.Queries++
		}
	}
	w.queryMu.Unlock()

	for _, a := range w.archetypes {
		names := make([]string, len(a.id))
		for i, id := range a.id {
			names[i] = opsOf(id).Name()
		}
		s.Archetypes = append(s.Archetypes, ArchetypeStats{
			Index:      a.index,
			Components: names,
			Entities:   a.Len(),
			Pages:      a.PageCount(),
		})
	}
	return s
}
