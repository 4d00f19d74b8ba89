package view

import (
	"net/http"

	"github.com/invoicely/invoicely/internal/i18n"
	"github.com/invoicely/invoicely/internal/shared"
)

// PageData builds the TemplateData common to every page: locale, bundle,
// switcher, flash and signed-in user. titleKey is looked up in the bundle.
func PageData(r *http.Request, csrfToken, titleKey string, data any) TemplateData {
	msgs := i18n.MessagesFromContext(r.Context())
	sess := shared.SessionFromContext(r.Context())
	td := TemplateData{
		Title:       msgs.Get(titleKey),
		CSRFToken:   csrfToken,
		Flash:       sess.PopFlash(),
		CurrentPath: r.URL.Path,
		Locale:      i18n.LocaleFromContext(r.Context()),
		Messages:    msgs,
		Switcher:    i18n.NewSwitcher(r.URL.Path, r.URL.RawQuery),
		Data:        data,
	}
	if sess.Authenticated() {
		td.UserEmail = sess.Email()
	}
	return td
}
