package domain

type OptionResult struct {
	OptionID   string  `json:"optionId"`
	Text       string  `json:"text"`
	VoteCount  int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// VoteResults is the tally of one poll.
type VoteResults struct {
	PollID     string         `json:"votingId"`
	Code       string         `json:"code"`
	Title      string         `json:"title"`
	IsActive   bool           `json:"isActive"`
	TotalVotes int64          `json:"totalVotes"`
	Options    []OptionResult `json:"options"`
	Winner     *OptionResult  `json:"winner,omitempty"`
}

// ComputeResults derives percentages and the winner from the option
// counters of p. The first option wins ties; there is no winner before the
// first vote.
func ComputeResults(p *Poll) *VoteResults {
	total := p.TotalVotes()
	results := &VoteResults{
		PollID:     p.ID,
		Code:       p.Code,
		Title:      p.Title,
		IsActive:   p.IsActive,
		TotalVotes: total,
		Options:    make([]OptionResult, 0, len(p.Options)),
	}

	winner := -1
	for i, opt := range p.Options {
		percentage := 0.0
		if total > 0 {
			percentage = (float64(opt.Votes) / float64(total)) * 100
		}
		results.Options = append(results.Options, OptionResult{
			OptionID:   opt.ID,
			Text:       opt.Text,
			VoteCount:  opt.Votes,
			Percentage: percentage,
		})
		if winner < 0 || opt.Votes > p.Options[winner].Votes {
			winner = i
		}
	}

	if total > 0 && winner >= 0 {
		w := results.Options[winner]
		results.Winner = &w
	}
	return results
}
