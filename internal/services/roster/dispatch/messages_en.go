package dispatch

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "dispatch.claim.prompt", "Pick the character you want to sign up with.")
	message.SetString(lang, "dispatch.claim.placeholder", "Select a character…")
	message.SetString(lang, "dispatch.claim.none", "You have no eligible characters for this event. Add one at %s")
	message.SetString(lang, "dispatch.signup.created", "You are signed up. A lead will pick the roster.")
	message.SetString(lang, "dispatch.withdraw.none", "You have no pending signups for this event.")
	message.SetString(lang, "dispatch.withdraw.done", "Withdrew %d signup(s).")
	message.SetString(lang, "dispatch.commit.done", "Signup picked.")
	message.SetString(lang, "dispatch.uncommit.done", "Pick removed.")
	message.SetString(lang, "dispatch.reproject.done", "Event messages refreshed.")
	message.SetString(lang, "dispatch.error.validation", "That request is not valid.")
	message.SetString(lang, "dispatch.error.not_found", "That event or character no longer exists.")
	message.SetString(lang, "dispatch.error.forbidden", "Only raid leads can do that.")
	message.SetString(lang, "dispatch.error.already_signed_up", "That character is already signed up for this event.")
	message.SetString(lang, "dispatch.error.character_locked", "That character is already picked for another event.")
	message.SetString(lang, "dispatch.error.signup_invalid_transition", "That signup was withdrawn.")
	message.SetString(lang, "dispatch.error.event_channel_not_attached", "This event has no channel attached.")
	message.SetString(lang, "dispatch.error.external_channel", "The event message could not be updated. A lead can refresh it.")
	message.SetString(lang, "dispatch.error.unknown", "Something went wrong. Please try again.")
}
