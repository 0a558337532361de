// Package language maps human-readable language names such as "French" or
// "Deutsch" to the short codes used in output file names.
package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/nodewee/doc-translate-prep/pkg/interfaces"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

// SupportedTags lists the languages a translation backend typically offers.
// Regional and script variants keep their full tag as code.
var SupportedTags = []language.Tag{
	language.Afrikaans, language.Arabic, language.Bulgarian, language.Bengali,
	language.Catalan, language.Czech, language.Danish, language.German,
	language.Greek, language.English, language.Spanish, language.Estonian,
	language.Persian, language.Finnish, language.French, language.Hebrew,
	language.Hindi, language.Croatian, language.Hungarian, language.Indonesian,
	language.Icelandic, language.Italian, language.Japanese, language.Korean,
	language.Lithuanian, language.Latvian, language.Malay, language.Norwegian,
	language.Dutch, language.Polish, language.Portuguese, language.Romanian,
	language.Russian, language.Slovak, language.Slovenian, language.Serbian,
	language.Swedish, language.Swahili, language.Tamil, language.Thai,
	language.Turkish, language.Ukrainian, language.Urdu, language.Vietnamese,
	language.SimplifiedChinese, language.TraditionalChinese,
	language.BrazilianPortuguese, language.EuropeanPortuguese,
	language.MustParse("ht"), language.MustParse("mww"), language.MustParse("tlh"),
}

// Resolver turns a language name into a code. Overrides are consulted
// first and compared case-insensitively.
type Resolver struct {
	overrides map[string]string
	names     map[string]string
}

var _ interfaces.LanguageResolver = (*Resolver)(nil)

// NewResolver creates a resolver over SupportedTags with optional name → code overrides
func NewResolver(overrides map[string]string) *Resolver {
	r := &Resolver{
		overrides: make(map[string]string, len(overrides)),
		names:     make(map[string]string),
	}
	for name, code := range overrides {
		r.overrides[normalize(name)] = code
	}

	english := display.English.Tags()
	for _, tag := range SupportedTags {
		code := codeFor(tag)
		for _, name := range []string{english.Name(tag), display.Self.Name(tag), tag.String()} {
			if name == "" {
				continue
			}
			key := normalize(name)
			// first writer wins so that plain languages keep their short code
			if _, taken := r.names[key]; !taken {
				r.names[key] = code
			}
		}
	}
	return r
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// codeFor returns the two-letter code for a plain language and the full tag
// for regional or script variants
func codeFor(tag language.Tag) string {
	base, conf := tag.Base()
	if conf != language.Exact {
		return tag.String()
	}
	if _, scriptConf := tag.Script(); scriptConf == language.Exact {
		return tag.String()
	}
	if _, regionConf := tag.Region(); regionConf == language.Exact {
		return tag.String()
	}
	return base.String()
}

// Code returns the short code for a language name, English or native, or
// for a tag that is already a code
func (r *Resolver) Code(name string) (string, error) {
	key := normalize(name)
	if key == "" {
		return "", utils.NewValidationError("target language cannot be empty", nil)
	}
	if code, ok := r.overrides[key]; ok {
		return code, nil
	}
	if code, ok := r.names[key]; ok {
		return code, nil
	}

	if tag, err := language.Parse(name); err == nil {
		if code, ok := r.names[normalize(tag.String())]; ok {
			return code, nil
		}
	}
	return "", utils.NewNotFoundError(fmt.Sprintf("unknown language: %q", name), nil)
}
