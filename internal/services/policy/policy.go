// Package policy принимает решения по истекающим и истёкшим подпискам:
// нужен ли в сообщении абзац о льготном периоде, отзывать ли доступы
// и каким текстом предупреждать пользователя. Пакет не делает ввода-вывода.
package policy

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/afinadao/membership/internal/models"
)

// DateLayout формат даты в сообщениях пользователю.
const DateLayout = "02.01.2006"

// Input данные, по которым принимается решение об истёкшей подписке.
type Input struct {
	Subscription models.SubscriptionInfo
	// UserSubscriptions все подписки пользователя, может включать Subscription.
	UserSubscriptions []*models.SubscriptionInfo
	Settings          models.Settings
	Catalog           []*models.Tariff
	Now               time.Time
}

// Decision результат оценки истёкшей подписки.
type Decision struct {
	// OmitGrace: набор тарифов пользователя совпадает с актуальным,
	// абзац о льготном периоде не нужен.
	OmitGrace bool
	GraceDays int
	// Revoke: других действующих подписок нет, внешние доступы снимаются.
	Revoke bool
	// KeepWith подписка, на которую переносятся доступы, если Revoke == false.
	KeepWith *models.SubscriptionInfo
}

// ActualTariffs возвращает id актуальных тарифов по настройкам.
func ActualTariffs(settings models.Settings, catalog []*models.Tariff) []int64 {
	if settings.ActualTariffMode == models.ActualTariffSingle {
		if settings.ActualTariffID == nil {
			return nil
		}
		return []int64{*settings.ActualTariffID}
	}

	var ids []int64
	for _, t := range catalog {
		if t.IsActive && !t.IsArchived && !t.IsCustom {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// EntitledTariffs возвращает тарифы активных подписок пользователя,
// включая оцениваемую.
func EntitledTariffs(sub models.SubscriptionInfo, subs []*models.SubscriptionInfo) []int64 {
	ids := []int64{sub.TariffID}
	for _, s := range subs {
		if s.ID != sub.ID && s.Status == models.StatusActive {
			ids = append(ids, s.TariffID)
		}
	}
	return ids
}

// SameSet сравнивает наборы id без учёта порядка и повторов.
func SameSet(a, b []int64) bool {
	return slices.Equal(normalize(a), normalize(b))
}

func normalize(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// Decide оценивает истёкшую подписку.
func Decide(in Input) Decision {
	actual := ActualTariffs(in.Settings, in.Catalog)
	entitled := EntitledTariffs(in.Subscription, in.UserSubscriptions)

	d := Decision{
		OmitGrace: SameSet(entitled, actual),
		GraceDays: in.Settings.GracePeriodDays,
		Revoke:    true,
	}

	d.KeepWith = KeepWith(in.Subscription, in.UserSubscriptions, in.Now)
	if d.KeepWith != nil {
		d.Revoke = false
	}
	return d
}

// KeepWith возвращает другую действующую подписку пользователя с самым
// поздним окончанием или nil.
func KeepWith(sub models.SubscriptionInfo, subs []*models.SubscriptionInfo, now time.Time) *models.SubscriptionInfo {
	var keep *models.SubscriptionInfo
	for _, s := range subs {
		if s.ID == sub.ID || !s.ActiveAt(now) {
			continue
		}
		if keep == nil || s.EndDate.After(keep.EndDate) {
			keep = s
		}
	}
	return keep
}

// ExpiryMessage текст уведомления об окончании подписки.
func ExpiryMessage(d Decision, sub models.SubscriptionInfo, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Срок вашей подписки «%s» истёк %s.", sub.TariffName, sub.EndDate.In(loc).Format(DateLayout))
	if !d.OmitGrace {
		fmt.Fprintf(&b, " В течение %d %s вы можете продлить её на прежних условиях, после этого будет доступен только актуальный тариф.",
			d.GraceDays, pluralDays(d.GraceDays))
	}
	if d.Revoke {
		b.WriteString(" Доступ к закрытым каналам и материалам приостановлен.")
	} else {
		b.WriteString(" Доступ сохраняется по вашей другой действующей подписке.")
	}
	return b.String()
}

// WarningMessage подставляет в текст администратора дату окончания и число дней.
func WarningMessage(text string, endDate time.Time, days int, loc *time.Location) string {
	r := strings.NewReplacer(
		"{end_date}", endDate.In(loc).Format(DateLayout),
		"{days}", strconv.Itoa(days),
	)
	return r.Replace(text)
}

// DaysUntil считает календарные дни от now до end в часовом поясе loc.
func DaysUntil(now, end time.Time, loc *time.Location) int {
	return int(civilDate(end, loc).Sub(civilDate(now, loc)).Hours() / 24)
}

// DayWindow возвращает границы календарного дня now+days в loc.
func DayWindow(now time.Time, days int, loc *time.Location) (from, to time.Time) {
	n := now.In(loc)
	from = time.Date(n.Year(), n.Month(), n.Day()+days, 0, 0, 0, 0, loc)
	to = time.Date(n.Year(), n.Month(), n.Day()+days+1, 0, 0, 0, 0, loc)
	return from, to
}

func civilDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func pluralDays(n int) string {
	n %= 100
	if n >= 11 && n <= 14 {
		return "дней"
	}
	switch n % 10 {
	case 1:
		return "дня"
	default:
		return "дней"
	}
}
