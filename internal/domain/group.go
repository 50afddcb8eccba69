package domain

// Group — группа наставничества из ростера. Живыми сценариями не меняется.
type Group struct {
	ID          string
	MemberCount int
}
