package memory

import "strings"

// Messages are the canned phrases the memory layer answers with.
type Messages struct {
	Remembered      string
	RememberedThis  string
	Noted           string
	Unknown         string
	TopicRemembered string // %s is the topic
	EventRecall     string // %s is predicate and object
	StateRecall     string // %s is the predicate

	RecallPhrases []string
	FirstPerson   []string
	SecondPerson  map[string]string
}

// EnglishMessages is the default message set.
func EnglishMessages() Messages {
	return Messages{
		Remembered:      "Got it.",
		RememberedThis:  "I'll remember that.",
		Noted:           "Understood, I'll remember.",
		Unknown:         "unknown",
		TopicRemembered: "Remembered topic: %s",
		EventRecall:     "Something happened: %s.",
		StateRecall:     "You were %s.",
		RecallPhrases: []string{
			"what did we talk about",
			"what were we talking about",
			"what did we discuss",
			"what have we discussed",
		},
		FirstPerson: []string{"i", "me", "my", "mine", "i'm"},
		SecondPerson: map[string]string{
			"i":      "you",
			"me":     "you",
			"my":     "your",
			"mine":   "yours",
			"myself": "yourself",
			"am":     "are",
			"i'm":    "you're",
		},
	}
}

// RussianMessages is the message set the original corpora were written for.
func RussianMessages() Messages {
	return Messages{
		Remembered:      "Запомнил.",
		RememberedThis:  "Запомню это.",
		Noted:           "Понял, запомню.",
		Unknown:         "неизвестно",
		TopicRemembered: "Запомнил тему: %s",
		EventRecall:     "Произошло: %s.",
		StateRecall:     "Тебе было %s.",
		RecallPhrases: []string{
			"о чем мы говорили",
			"о чем говорили",
			"что мы обсуждали",
			"что мы говорили",
		},
		FirstPerson: []string{"я", "мне", "меня", "мой", "моя"},
		SecondPerson: map[string]string{
			"я":    "ты",
			"мне":  "тебе",
			"меня": "тебя",
			"мой":  "твой",
			"моя":  "твоя",
			"моё":  "твоё",
			"мои":  "твои",
		},
	}
}

// MessagesFor picks a message set by locale ("ru", "ru-RU", "en"...).
// Unknown locales get English.
func MessagesFor(locale string) Messages {
	if strings.HasPrefix(strings.ToLower(locale), "ru") {
		return RussianMessages()
	}
	return EnglishMessages()
}
