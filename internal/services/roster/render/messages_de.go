package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.German

	message.SetString(lang, "role.tank", "Tanks")
	message.SetString(lang, "role.heal", "Heals")
	message.SetString(lang, "role.melee", "Melee")
	message.SetString(lang, "role.ranged", "Ranged")
	message.SetString(lang, "event.difficulty.normal", "Normal")
	message.SetString(lang, "event.difficulty.heroic", "Heroisch")
	message.SetString(lang, "event.difficulty.mythic", "Mythisch")
	message.SetString(lang, "event.loot.unsaved", "unsaved")
	message.SetString(lang, "event.loot.saved", "saved")
	message.SetString(lang, "event.loot.vip", "VIP")
	message.SetString(lang, "event.schedule", "📅 %s")
	message.SetString(lang, "event.schedule.tbd", "📅 Termin tbd")
	message.SetString(lang, "announcement.status", "Anmeldungen: **%d** pending · Picks: **%d**")
	message.SetString(lang, "announcement.button.signup", "Anmelden")
	message.SetString(lang, "announcement.button.withdraw", "Abmelden")
	message.SetString(lang, "roster.title", "Roster – %s")
	message.SetString(lang, "event.cancelled.title", "Abgesagt – %s")
	message.SetString(lang, "event.cancelled.body", "Dieser Raid wurde gelöscht. Anmeldungen sind geschlossen.")
	message.SetString(lang, "roster.field.title", "📋 Roster (Picked)")
	message.SetString(lang, "roster.field.empty_title", "Roster")
	message.SetString(lang, "roster.empty", "Noch keine Picks.")
	message.SetString(lang, "roster.more", "+%d mehr")
}
