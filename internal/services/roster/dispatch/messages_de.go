package dispatch

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.German

	message.SetString(lang, "dispatch.claim.prompt", "Wähle den Charakter, mit dem du dich anmelden willst.")
	message.SetString(lang, "dispatch.claim.placeholder", "Charakter auswählen…")
	message.SetString(lang, "dispatch.claim.none", "Du hast keine passenden Charaktere für diesen Raid. Lege einen an unter %s")
	message.SetString(lang, "dispatch.signup.created", "Du bist angemeldet. Ein Raidlead stellt das Roster zusammen.")
	message.SetString(lang, "dispatch.withdraw.none", "Du hast keine offenen Anmeldungen für diesen Raid.")
	message.SetString(lang, "dispatch.withdraw.done", "%d Anmeldung(en) zurückgezogen.")
	message.SetString(lang, "dispatch.commit.done", "Anmeldung gepickt.")
	message.SetString(lang, "dispatch.uncommit.done", "Pick entfernt.")
	message.SetString(lang, "dispatch.reproject.done", "Raid-Nachrichten aktualisiert.")
	message.SetString(lang, "dispatch.error.validation", "Die Anfrage ist ungültig.")
	message.SetString(lang, "dispatch.error.not_found", "Raid oder Charakter existiert nicht mehr.")
	message.SetString(lang, "dispatch.error.forbidden", "Das dürfen nur Raidleads.")
	message.SetString(lang, "dispatch.error.already_signed_up", "Dieser Charakter ist bereits für diesen Raid angemeldet.")
	message.SetString(lang, "dispatch.error.character_locked", "Dieser Charakter ist bereits für einen anderen Raid gepickt.")
	message.SetString(lang, "dispatch.error.signup_invalid_transition", "Diese Anmeldung wurde zurückgezogen.")
	message.SetString(lang, "dispatch.error.event_channel_not_attached", "Dieser Raid hat keinen Kanal.")
	message.SetString(lang, "dispatch.error.external_channel", "Die Raid-Nachricht konnte nicht aktualisiert werden. Ein Raidlead kann sie neu laden.")
	message.SetString(lang, "dispatch.error.unknown", "Etwas ist schiefgelaufen. Bitte versuche es erneut.")
}
