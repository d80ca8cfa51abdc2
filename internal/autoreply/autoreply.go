// Package autoreply maps inbound text to a response category and picks a
// pooled reply. Used only by the optional automatic-reply mode; not on
// the delivery-critical path.
package autoreply

import (
	"math/rand"
	"strings"
)

// Category of an inbound message, resolved by keyword match.
type Category string

const (
	CategoryGreetings Category = "greetings"
	CategoryWebsite   Category = "website_requests"
	CategoryDontKnow  Category = "dont_know"
	CategoryRedirects Category = "redirects"
	CategoryDefault   Category = "default"
)

// Keyword groups, checked in precedence order: greetings first, then
// website/where-to-buy, then help/how. Anything else redirects.
var (
	greetingKeywords = []string{"привет", "здравствуй", "хай"}
	websiteKeywords  = []string{"сайт", "ссылк", "где купить"}
	dontKnowKeywords = []string{"не знаешь", "помоги", "как"}
)

// pools are the fixed reply texts per category.
var pools = map[Category][]string{
	CategoryGreetings: {
		"Привет! Я немного занят сейчас, но скоро вернусь к тебе.",
		"Здравствуйте! Мои нейросети сейчас в перезагрузке.",
		"Приветствую! Я обрабатываю сложный запрос, подожди немного.",
	},
	CategoryRedirects: {
		"Интересный вопрос! Может, сначала обсудим погоду?",
		"Хм, давай сменим тему. Как насчет твоего дня?",
		"Это сложная тема. Может, начнем с чего-то попроще?",
		"Я сейчас не готов обсуждать это. Давай поговорим о другом?",
		"Ой, это слишком сложно для меня. Может, что-нибудь полегче?",
		"Интересно, но я бы предпочел обсудить что-то другое.",
		"Это глубокий вопрос! А что ты думаешь о котиках?",
		"Давай оставим это для позже. Хочешь услышать анекдот?",
		"Я сейчас в режиме раздумий. Может, вернемся к этому позже?",
		"Это слишком серьезно! Давай о чем-нибудь веселом?",
	},
	CategoryDontKnow: {
		"Я не знаю, но я готов учиться!",
		"Хороший вопрос! Мне нужно время подумать.",
		"Это за пределами моих знаний. Давай поищем вместе?",
		"Я не уверен, но могу предположить...",
		"Это сложный вопрос. Нужна помощь эксперта.",
	},
	CategoryWebsite: {
		"Я не могу давать ссылки на сайты, но могу помочь с информацией!",
		"Лучше поищи в Google. А я могу помочь с чем-то другим?",
		"Сайты - это не моя сильная сторона. Давай поговорим о чем-то другом?",
		"Я не рекомендую сайты, но могу обсудить тему!",
		"Для сайтов есть поисковики. А я здесь для общения!",
	},
	CategoryDefault: {
		"Давай сменим тему. Что у тебя нового?",
		"Интересно! А как ты к этому пришел?",
		"Я немного запутался. Давай начнем сначала?",
		"Это требует долгого разговора. У тебя есть время?",
		"Я сейчас не в настроении для таких тем. Извини.",
	},
}

// Categorize resolves text to a category by case-insensitive substring
// match, in fixed precedence order. Stateless and safe for concurrent use.
func Categorize(text string) Category {
	lower := strings.ToLower(text)

	if containsAny(lower, greetingKeywords) {
		return CategoryGreetings
	}
	if containsAny(lower, websiteKeywords) {
		return CategoryWebsite
	}
	if containsAny(lower, dontKnowKeywords) {
		return CategoryDontKnow
	}
	return CategoryRedirects
}

// Pick selects one reply uniformly at random from the category's pool.
// Unknown categories fall back to the default pool; if the default pool
// is chosen but the original text mentions a site, the website pool is
// used instead.
func Pick(category Category, original string) string {
	pool, ok := pools[category]
	if !ok {
		category = CategoryDefault
		pool = pools[CategoryDefault]
	}

	if category == CategoryDefault && strings.Contains(strings.ToLower(original), "сайт") {
		return Pick(CategoryWebsite, original)
	}

	return pool[rand.Intn(len(pool))]
}

// Pool returns the reply pool for a category. Exposed for tests and
// diagnostics.
func Pool(category Category) []string {
	return pools[category]
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
