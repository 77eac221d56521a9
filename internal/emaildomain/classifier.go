// Package emaildomain classifies email addresses by the kind of mailbox
// provider behind them and maps each class to a configured score tier.
package emaildomain

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrInvalidEmail is returned when an address has no usable domain part.
var ErrInvalidEmail = errors.New("invalid email address")

// Class is the provider class of an email domain.
type Class string

const (
	ClassCorporate Class = "corporate"
	ClassPersonal  Class = "personal"
	ClassAbusive   Class = "abusive"
)

// Closed list of throwaway and reserved domains.
var disposableDomains = map[string]struct{}{
	"mailinator.com":     {},
	"guerrillamail.com":  {},
	"guerrillamail.net":  {},
	"sharklasers.com":    {},
	"10minutemail.com":   {},
	"tempmail.com":       {},
	"temp-mail.org":      {},
	"yopmail.com":        {},
	"trashmail.com":      {},
	"getnada.com":        {},
	"dispostable.com":    {},
	"throwawaymail.com":  {},
	"maildrop.cc":        {},
	"fakeinbox.com":      {},
	"mintemail.com":      {},
	"mailnesia.com":      {},
	"example.com":        {},
	"example.org":        {},
	"example.net":        {},
	"invalid.invalid":    {},
	"test.test":          {},
	"spamgourmet.com":    {},
	"emailondeck.com":    {},
	"burnermail.io":      {},
	"discard.email":      {},
	"moakt.com":          {},
	"mohmal.com":         {},
	"tempinbox.com":      {},
	"spam4.me":           {},
	"grr.la":             {},
	"mailcatch.com":      {},
	"inboxkitten.com":    {},
}

// Closed list of free consumer mailbox providers.
var freeProviderDomains = map[string]struct{}{
	"gmail.com":      {},
	"googlemail.com": {},
	"yahoo.com":      {},
	"yahoo.co.uk":    {},
	"yahoo.fr":       {},
	"yahoo.de":       {},
	"ymail.com":      {},
	"hotmail.com":    {},
	"hotmail.co.uk":  {},
	"hotmail.fr":     {},
	"outlook.com":    {},
	"live.com":       {},
	"msn.com":        {},
	"aol.com":        {},
	"icloud.com":     {},
	"me.com":         {},
	"mac.com":        {},
	"protonmail.com": {},
	"proton.me":      {},
	"gmx.com":        {},
	"gmx.de":         {},
	"gmx.net":        {},
	"web.de":         {},
	"mail.com":       {},
	"yandex.com":     {},
	"yandex.ru":      {},
	"mail.ru":        {},
	"zoho.com":       {},
	"qq.com":         {},
	"163.com":        {},
	"126.com":        {},
	"naver.com":      {},
	"orange.fr":      {},
	"free.fr":        {},
	"libero.it":      {},
	"comcast.net":    {},
	"btinternet.com": {},
}

// Domain extracts the lower-cased domain part of an address.
func Domain(email string) (string, error) {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	domain := strings.TrimSuffix(strings.ToLower(email[at+1:]), ".")
	if domain == "" || strings.ContainsAny(domain, " \t@") || !strings.Contains(domain, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return domain, nil
}

// Classify returns the provider class of an address. Sub-domains resolve
// through their registrable domain, so mail.yahoo.co.uk classifies the same
// as yahoo.co.uk.
func Classify(email string) (Class, error) {
	domain, err := Domain(email)
	if err != nil {
		return "", err
	}
	for _, d := range candidates(domain) {
		if _, ok := disposableDomains[d]; ok {
			return ClassAbusive, nil
		}
	}
	for _, d := range candidates(domain) {
		if _, ok := freeProviderDomains[d]; ok {
			return ClassPersonal, nil
		}
	}
	return ClassCorporate, nil
}

// ClassifyOrAbusive is Classify with malformed input treated as abusive.
func ClassifyOrAbusive(email string) Class {
	class, err := Classify(email)
	if err != nil {
		return ClassAbusive
	}
	return class
}

func candidates(domain string) []string {
	registrable, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil || registrable == domain {
		return []string{domain}
	}
	return []string{domain, registrable}
}
