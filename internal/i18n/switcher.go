package i18n

import "strings"

// SwitcherOption is one entry of the language select.
type SwitcherOption struct {
	Locale   Locale
	Label    string
	Href     string
	Selected bool
}

// Switcher is the view model behind the language select.
type Switcher struct {
	Options []SwitcherOption
}

var switcherLabels = map[Locale]string{
	English: "English",
	French:  "Français",
}

// NewSwitcher builds the two-option select for the current path. The initial
// selection is French when the path starts with "/fr", English otherwise.
// rawQuery is carried over to every target.
func NewSwitcher(path, rawQuery string) Switcher {
	current := English
	if strings.HasPrefix(path, "/fr") {
		current = French
	}
	opts := make([]SwitcherOption, 0, len(Supported))
	for _, loc := range Supported {
		href := LocalizePath(path, loc)
		if rawQuery != "" {
			href += "?" + rawQuery
		}
		opts = append(opts, SwitcherOption{
			Locale:   loc,
			Label:    switcherLabels[loc],
			Href:     href,
			Selected: loc == current,
		})
	}
	return Switcher{Options: opts}
}

// Selected returns the initially selected locale.
func (s Switcher) Selected() Locale {
	for _, opt := range s.Options {
		if opt.Selected {
			return opt.Locale
		}
	}
	return DefaultLocale
}
