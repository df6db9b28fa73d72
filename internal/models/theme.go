package models

// ThemeColors is one palette of a server's custom theme.
type ThemeColors struct {
	Background            string `json:"background" binding:"required"`
	Foreground            string `json:"foreground" binding:"required"`
	Card                  string `json:"card" binding:"required"`
	CardForeground        string `json:"cardForeground" binding:"required"`
	Popover               string `json:"popover" binding:"required"`
	PopoverForeground     string `json:"popoverForeground" binding:"required"`
	Primary               string `json:"primary" binding:"required"`
	PrimaryForeground     string `json:"primaryForeground" binding:"required"`
	Secondary             string `json:"secondary" binding:"required"`
	SecondaryForeground   string `json:"secondaryForeground" binding:"required"`
	Muted                 string `json:"muted" binding:"required"`
	MutedForeground       string `json:"mutedForeground" binding:"required"`
	Accent                string `json:"accent" binding:"required"`
	AccentForeground      string `json:"accentForeground" binding:"required"`
	Destructive           string `json:"destructive" binding:"required"`
	DestructiveForeground string `json:"destructiveForeground" binding:"required"`
	Border                string `json:"border" binding:"required"`
	Input                 string `json:"input" binding:"required"`
	Ring                  string `json:"ring" binding:"required"`
}

// Theme is stored as a JSON document on the server row.
type Theme struct {
	ID     string       `json:"id" binding:"required"`
	Name   string       `json:"name" binding:"required"`
	Light  ThemeColors  `json:"light" binding:"required"`
	Dark   *ThemeColors `json:"dark,omitempty" binding:"omitempty"`
	Radius *string      `json:"radius,omitempty"`
}
