package services

import (
	"fmt"
	"time"

	"github.com/evkarev/dailywish/internal/core/domain"
)

// Rendering is pure formatting: Decision in, user-facing text out. The
// transport delivers the text as-is.

const greetingText = "✨ Добро пожаловать!\n\n" +
	"Каждый день здесь можно получить тёплое пожелание.\n" +
	"Нажми кнопку ниже:"

// RenderGreeting is the /start reply.
func RenderGreeting() string {
	return greetingText
}

// RenderDecision formats a grant or denial for the user.
func RenderDecision(d domain.Decision) string {
	if d.Granted {
		return fmt.Sprintf(
			"«%s»\n\n🔥 Стрик: %d дней подряд\n📊 Всего пожеланий: %d",
			d.Wish, d.Streak, d.Total,
		)
	}

	return fmt.Sprintf(
		"Пожелание на сегодня уже получено:\n\n«%s»\n\n⏳ До нового пожелания: %s\n\nВозвращайся завтра 💛",
		d.Wish, RenderRemaining(d.Remaining),
	)
}

// RenderRemaining formats a duration as whole hours and minutes, both
// floored, e.g. "3 ч 40 мин".
func RenderRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	if hours == 0 {
		return fmt.Sprintf("%d мин", minutes)
	}
	return fmt.Sprintf("%d ч %d мин", hours, minutes)
}
