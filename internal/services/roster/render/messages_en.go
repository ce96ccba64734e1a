package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "role.tank", "Tanks")
	message.SetString(lang, "role.heal", "Heals")
	message.SetString(lang, "role.melee", "Melee")
	message.SetString(lang, "role.ranged", "Ranged")
	message.SetString(lang, "event.difficulty.normal", "Normal")
	message.SetString(lang, "event.difficulty.heroic", "Heroic")
	message.SetString(lang, "event.difficulty.mythic", "Mythic")
	message.SetString(lang, "event.loot.unsaved", "unsaved")
	message.SetString(lang, "event.loot.saved", "saved")
	message.SetString(lang, "event.loot.vip", "VIP")
	message.SetString(lang, "event.schedule", "📅 %s")
	message.SetString(lang, "event.schedule.tbd", "📅 Date tbd")
	message.SetString(lang, "announcement.status", "Signups: **%d** pending · Picks: **%d**")
	message.SetString(lang, "announcement.button.signup", "Sign up")
	message.SetString(lang, "announcement.button.withdraw", "Withdraw")
	message.SetString(lang, "roster.title", "Roster – %s")
	message.SetString(lang, "event.cancelled.title", "Cancelled – %s")
	message.SetString(lang, "event.cancelled.body", "This event was deleted. Signups are closed.")
	message.SetString(lang, "roster.field.title", "📋 Roster (picked)")
	message.SetString(lang, "roster.field.empty_title", "Roster")
	message.SetString(lang, "roster.empty", "No picks yet.")
	message.SetString(lang, "roster.more", "+%d more")
}
