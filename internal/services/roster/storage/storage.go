// Package storage defines the roster persistence contracts.
//
// The sqlite subpackage is the only implementation. Domain code depends on
// the interfaces here so transactional units of work can be composed from
// the same reader and writer methods the store exposes outside a
// transaction.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write violated a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrInvalidFilter indicates a list filter expression could not be parsed.
	ErrInvalidFilter = errors.New("invalid filter")
)

// UserRole is the privilege level resolved for a user.
type UserRole string

const (
	UserRoleParticipant UserRole = "participant"
	UserRoleLead        UserRole = "lead"
	UserRoleAdmin       UserRole = "admin"
)

// CharacterRole is the combat role a character fills.
type CharacterRole string

const (
	CharacterRoleTank   CharacterRole = "tank"
	CharacterRoleHeal   CharacterRole = "heal"
	CharacterRoleMelee  CharacterRole = "melee"
	CharacterRoleRanged CharacterRole = "ranged"
)

// CharacterRoles lists every role in roster display order.
var CharacterRoles = []CharacterRole{
	CharacterRoleTank,
	CharacterRoleHeal,
	CharacterRoleMelee,
	CharacterRoleRanged,
}

// SignupStatus is the lifecycle state of a signup.
type SignupStatus string

const (
	// SignupStatusPending is a claim awaiting a lead's decision.
	SignupStatusPending SignupStatus = "pending"
	// SignupStatusCommitted is a claim promoted into the final roster. The
	// character is locked to the event while committed.
	SignupStatusCommitted SignupStatus = "committed"
	// SignupStatusWithdrawn is terminal.
	SignupStatusWithdrawn SignupStatus = "withdrawn"
)

// Difficulty is the event difficulty tag.
type Difficulty string

const (
	DifficultyNormal Difficulty = "normal"
	DifficultyHeroic Difficulty = "heroic"
	DifficultyMythic Difficulty = "mythic"
)

// LootType is the event loot tag.
type LootType string

const (
	LootTypeUnsaved LootType = "unsaved"
	LootTypeSaved   LootType = "saved"
	LootTypeVIP     LootType = "vip"
)

// UserRecord is one participant known to the roster.
type UserRecord struct {
	ID               string
	ExternalIdentity string
	DisplayName      string
	Role             UserRole
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CharacterRecord is one character owned by a user.
type CharacterRecord struct {
	ID        string
	OwnerID   string
	Name      string
	Class     string
	Role      CharacterRole
	ItemLevel *int
	Notes     string
	// LockedForEvent is the event the character is committed to, or empty.
	LockedForEvent string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EventRecord is one scheduled event.
type EventRecord struct {
	ID          string
	Title       string
	ScheduledAt time.Time
	Capacity    int
	Difficulty  Difficulty
	LootType    LootType
	Description string
	CreatedBy   string
	// ChannelRef is the external channel projections are pushed to.
	ChannelRef string
	// AnnouncementRef and RosterRef identify the external messages last
	// created for each surface.
	AnnouncementRef string
	RosterRef       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SignupRecord is one claim of a character for an event.
type SignupRecord struct {
	ID          string
	EventID     string
	UserID      string
	CharacterID string
	Role        CharacterRole
	Status      SignupStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RosterEntry is a committed signup joined with the names the projection
// displays.
type RosterEntry struct {
	SignupID      string
	CharacterID   string
	CharacterName string
	Class         string
	Role          CharacterRole
	UserName      string
	CommittedAt   time.Time
}

// SignupCounts holds per-status signup totals for one event.
type SignupCounts struct {
	Pending   int
	Committed int
	Withdrawn int
}

// Reader exposes the read side shared by the store and its transactions.
type Reader interface {
	GetUser(ctx context.Context, id string) (UserRecord, error)
	GetUserByExternalIdentity(ctx context.Context, externalIdentity string) (UserRecord, error)

	GetCharacter(ctx context.Context, id string) (CharacterRecord, error)
	ListCharactersByOwner(ctx context.Context, ownerID string) ([]CharacterRecord, error)
	// ListAvailableCharacters returns the owner's characters that are
	// unlocked or locked to eventID and have no non-withdrawn signup for
	// eventID, ordered by name.
	ListAvailableCharacters(ctx context.Context, ownerID, eventID string) ([]CharacterRecord, error)

	GetEvent(ctx context.Context, id string) (EventRecord, error)
	// ListEvents returns events scheduled at or after from, soonest first.
	ListEvents(ctx context.Context, from time.Time, limit int) ([]EventRecord, error)

	GetSignup(ctx context.Context, id string) (SignupRecord, error)
	// GetActiveSignup returns the non-withdrawn signup for the pair.
	GetActiveSignup(ctx context.Context, eventID, characterID string) (SignupRecord, error)
	// ListSignups returns an event's signups matching an AIP-160 filter,
	// oldest first. An empty filter matches everything.
	ListSignups(ctx context.Context, eventID, filter string) ([]SignupRecord, error)
	ListRoster(ctx context.Context, eventID string) ([]RosterEntry, error)
	CountSignups(ctx context.Context, eventID string) (SignupCounts, error)
}

// Writer exposes the write side shared by the store and its transactions.
type Writer interface {
	// UpsertUser inserts or refreshes a user keyed by external identity and
	// returns the stored row. The ID of an existing row is kept.
	UpsertUser(ctx context.Context, record UserRecord) (UserRecord, error)

	PutCharacter(ctx context.Context, record CharacterRecord) error
	// SetCharacterLock sets or, with an empty eventID, clears the lock.
	SetCharacterLock(ctx context.Context, characterID, eventID string, at time.Time) error

	PutEvent(ctx context.Context, record EventRecord) error
	SetEventRefs(ctx context.Context, eventID, announcementRef, rosterRef string, at time.Time) error
	// DeleteEvent clears every lock held for the event, then deletes its
	// signups and the event row.
	DeleteEvent(ctx context.Context, id string) error

	InsertSignup(ctx context.Context, record SignupRecord) error
	UpdateSignupStatus(ctx context.Context, id string, status SignupStatus, at time.Time) error
	// WithdrawPending moves the user's pending signups for the event to
	// withdrawn and returns how many changed.
	WithdrawPending(ctx context.Context, eventID, userID string, at time.Time) (int, error)
}

// Tx is a unit of work. It is only valid inside the function passed to
// Store.WithTx.
type Tx interface {
	Reader
	Writer
}

// Store is the roster entity store.
type Store interface {
	Reader
	Writer
	// WithTx runs fn in one transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
