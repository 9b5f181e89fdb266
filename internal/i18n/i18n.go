package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"

	// DefaultLocale 默认语言
	DefaultLocale = LocaleZhCN

	localeHeader = "X-Locale"
)

var supportedTags = []language.Tag{
	language.SimplifiedChinese,
	language.AmericanEnglish,
}

var matcher = language.NewMatcher(supportedTags)

var tagLocales = map[language.Tag]string{
	language.SimplifiedChinese: LocaleZhCN,
	language.AmericanEnglish:   LocaleEnUS,
}

// ResolveLocale 依次读取 X-Locale 与 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if explicit := strings.TrimSpace(c.GetHeader(localeHeader)); explicit != "" {
		return NormalizeLocale(explicit)
	}
	accept := strings.TrimSpace(c.GetHeader("Accept-Language"))
	if accept == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	return matchLocale(tags...)
}

// NormalizeLocale 将任意语言标签映射到受支持的语言
func NormalizeLocale(raw string) string {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return DefaultLocale
	}
	return matchLocale(tag)
}

func matchLocale(tags ...language.Tag) string {
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	if locale, ok := tagLocales[supportedTags[index]]; ok {
		return locale
	}
	return DefaultLocale
}

// T 按语言查找文案，缺失时回退默认语言，再缺失时返回 key
func T(locale, key string) string {
	if msg, ok := lookup(locale, key); ok {
		return msg
	}
	if msg, ok := lookup(DefaultLocale, key); ok {
		return msg
	}
	return key
}

// Sprintf 查找文案并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func lookup(locale, key string) (string, bool) {
	table, ok := catalogs[locale]
	if !ok {
		return "", false
	}
	msg, ok := table[key]
	return msg, ok
}
