package domain

// BoardGroup is one lane of a board rendering: a discrete value of the
// grouping property and how many rows fall into it.
type BoardGroup struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}
