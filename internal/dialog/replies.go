package dialog

import "strings"

// Replies are the engine's own canned answers.
type Replies struct {
	Greeting         string
	Unknown          string
	GreetingTriggers []string
	AntiSpam         []string

	Reloaded       string
	Stats          string // context, templates, keywords
	Cleared        string
	UnknownCommand string // %s is the command

	// ClearAliases also clear the chat when typed without a slash.
	ClearAliases []string
}

// EnglishReplies is the default reply set.
func EnglishReplies() Replies {
	return Replies{
		Greeting:         "Hello!",
		Unknown:          "Didn't understand. Try another phrasing.",
		GreetingTriggers: []string{"hello", "hi"},
		AntiSpam: []string{
			"Please stop spamming.",
			"Too many repeats, try something new.",
			"I'm tired of the repeats.",
		},
		Reloaded:       "Templates reloaded.",
		Stats:          "Context: %s, templates: %d, keywords: %d",
		Cleared:        "Chat cleared.",
		UnknownCommand: "Unknown command: %s",
	}
}

// RussianReplies matches the language the bundled corpora use.
func RussianReplies() Replies {
	return Replies{
		Greeting:         "Привет!",
		Unknown:          "Не понял. Попробуй сказать иначе.",
		GreetingTriggers: []string{"привет", "здравствуй", "здравствуйте"},
		AntiSpam: []string{
			"Хватит спамить.",
			"Слишком много повторов, спроси что-нибудь другое.",
			"Я устал от повторов.",
		},
		Reloaded:       "Шаблоны перезагружены.",
		Stats:          "Контекст: %s, шаблонов: %d, ключевых слов: %d",
		Cleared:        "Чат очищен.",
		UnknownCommand: "Неизвестная команда: %s",
		ClearAliases:   []string{"очисти чат"},
	}
}

// RepliesFor picks a reply set by locale. Unknown locales get English.
func RepliesFor(locale string) Replies {
	if strings.HasPrefix(strings.ToLower(locale), "ru") {
		return RussianReplies()
	}
	return EnglishReplies()
}

// isGreeting reports whether any normalized token is a greeting trigger.
func (r Replies) isGreeting(tokens []string) bool {
	for _, t := range tokens {
		for _, g := range r.GreetingTriggers {
			if t == g {
				return true
			}
		}
	}
	return false
}
