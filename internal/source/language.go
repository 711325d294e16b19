// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package source

import (
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"

	"github.com/reviewatlas/reviewatlas/internal/models"
)

// DetectLanguage classifies the language of an opinion text.
//
// An empty opinion is English by convention: it carries no
// disambiguating signal and must not be discarded for emptiness alone.
// Text the detector cannot classify (no letters, or an unreliable guess
// on short strings) maps to the "Other" sentinel instead of an error.
// Detection is best-effort and not deterministic for short strings.
func DetectLanguage(text string) string {
	if text == "" {
		return models.LanguageEnglish
	}
	if strings.IndexFunc(text, unicode.IsLetter) < 0 {
		// Nothing classifiable (punctuation, digits, whitespace only).
		return models.LanguageOther
	}

	info := whatlanggo.Detect(text)
	if info.Lang == whatlanggo.Eng {
		return models.LanguageEnglish
	}
	if !info.IsReliable() {
		return models.LanguageOther
	}
	return whatlanggo.LangToString(info.Lang)
}

// FilterEnglish attaches a language classification to every review and
// keeps only the English-classified rows. Dropped is the number of rows
// removed.
func FilterEnglish(reviews []models.Review) (english []models.Review, dropped int) {
	english = make([]models.Review, 0, len(reviews))
	for _, r := range reviews {
		r.Language = DetectLanguage(r.Opinion)
		if r.Language != models.LanguageEnglish {
			dropped++
			continue
		}
		english = append(english, r)
	}
	return english, dropped
}
