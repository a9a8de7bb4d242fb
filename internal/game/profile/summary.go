package profile

// ArtisSummary is the artifact part of a Summary.
type ArtisSummary struct {
	Length    int            `json:"length"`
	Mark      float64        `json:"mark"`
	MarkClass string         `json:"markClass"`
	Sets      map[string]int `json:"sets,omitempty"`
}

// Summary is the display view of a build. It needs no rule module, so it
// stays available for characters whose damage cannot be evaluated.
type Summary struct {
	UID            string         `json:"uid,omitempty"`
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	Elem           string         `json:"elem"`
	Level          int            `json:"level"`
	Promote        int            `json:"promote"`
	Cons           int            `json:"cons"`
	Fetter         int            `json:"fetter"`
	Costume        int            `json:"costume"`
	CostumeVariant string         `json:"costumeVariant"`
	DataSource     string         `json:"dataSource"`
	DataSourceName string         `json:"dataSourceName"`
	UpdateTime     string         `json:"updateTime"`
	HasData        bool           `json:"hasData"`
	HasArtis       bool           `json:"hasArtis"`
	Weapon         *Weapon        `json:"weapon,omitempty"`
	Talent         map[string]int `json:"talent,omitempty"`
	OriginalTalent map[string]int `json:"originalTalent,omitempty"`
	Artis          *ArtisSummary  `json:"artis,omitempty"`
	Panel          *Panel         `json:"panel,omitempty"`
}

// Summarize describes b. The panel comes from b's cached attributes,
// resolving them first when needed.
//
// Precondition: b must be non-nil.
// Postcondition: Returns the summary, or an error when the attributes cannot
// be resolved. b is not modified apart from its attribute cache.
func (r *AttrResolver) Summarize(b *Build) (Summary, error) {
	set, err := r.ResolveOrFetch(b)
	if err != nil {
		return Summary{}, err
	}
	panel := PanelOf(set)
	costume, variant := b.Costume()
	s := Summary{
		UID:            b.UID,
		ID:             b.ID(),
		Name:           b.Name(),
		Elem:           b.Elem,
		Level:          b.Level,
		Promote:        b.Promote,
		Cons:           b.Cons,
		Fetter:         b.Fetter,
		Costume:        costume,
		CostumeVariant: variant,
		DataSource:     b.DataSource,
		DataSourceName: b.DataSourceName(),
		UpdateTime:     b.UpdateTime(),
		HasData:        b.HasData(),
		HasArtis:       b.HasArtis(),
		Weapon:         b.Weapon,
		Panel:          &panel,
	}
	if b.Talent != nil {
		s.Talent = b.TalentLevels()
		s.OriginalTalent = b.OriginalTalent()
	}
	if b.Artis != nil {
		s.Artis = &ArtisSummary{
			Length:    b.Artis.Length,
			Mark:      b.Artis.Mark,
			MarkClass: b.Artis.MarkClass,
			Sets:      b.Artis.Sets,
		}
	}
	return s, nil
}
