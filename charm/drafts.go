// ABOUTME: Persisted editor drafts so blockout and follow-up edits survive between runs
// ABOUTME: Each draft is a JSON envelope with a ULID session ID keyed by editor kind

package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/engage/calendar"
	"github.com/harperreed/engage/followup"
	"github.com/oklog/ulid/v2"
)

const (
	blockoutKey    = "draft/blockout"
	followupPrefix = "draft/followup/"
)

// Draft kinds.
const (
	KindBlockout = "blockout"
	KindFollowup = "followup"
)

// ErrNoDraft is returned when no editor session is open.
var ErrNoDraft = errors.New("no open draft")

// Envelope wraps a stored draft.
type Envelope struct {
	Session  string          `json:"session"`
	Kind     string          `json:"kind"`
	LeadID   string          `json:"lead_id,omitempty"`
	OpenedAt time.Time       `json:"opened_at"`
	SavedAt  time.Time       `json:"saved_at"`
	Payload  json.RawMessage `json:"payload"`
}

// Drafts stores editor sessions in a Client.
type Drafts struct {
	client *Client
	now    func() time.Time
}

func NewDrafts(client *Client) *Drafts {
	return &Drafts{client: client, now: time.Now}
}

// NewSessionID returns a sortable session identifier.
func NewSessionID(at time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(at.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}

func followupKey(leadID string) string {
	return followupPrefix + leadID
}

func (d *Drafts) put(key string, env *Envelope, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	env.Payload = data
	env.SavedAt = d.now().UTC()

	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode draft envelope: %w", err)
	}
	if err := d.client.Set([]byte(key), raw); err != nil {
		return fmt.Errorf("failed to store draft: %w", err)
	}
	return nil
}

func (d *Drafts) get(key string, payload any) (*Envelope, error) {
	raw, err := d.client.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) || (err == nil && len(raw) == 0) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode draft envelope: %w", err)
	}
	if payload != nil {
		if err := json.Unmarshal(env.Payload, payload); err != nil {
			return nil, fmt.Errorf("failed to decode draft: %w", err)
		}
	}
	return &env, nil
}

func (d *Drafts) remove(key string) error {
	err := d.client.Delete([]byte(key))
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}

// OpenBlockout starts a blockout session from b, replacing any session already open.
func (d *Drafts) OpenBlockout(b calendar.Blockout) (*Envelope, error) {
	now := d.now().UTC()
	env := &Envelope{Session: NewSessionID(now), Kind: KindBlockout, OpenedAt: now}
	if err := d.put(blockoutKey, env, b.Clean()); err != nil {
		return nil, err
	}
	return env, nil
}

// LoadBlockout returns the open blockout session. ErrNoDraft when none is open.
func (d *Drafts) LoadBlockout() (*Envelope, calendar.Blockout, error) {
	var b calendar.Blockout
	env, err := d.get(blockoutKey, &b)
	if err != nil {
		return nil, calendar.Blockout{}, err
	}
	return env, b.Clean(), nil
}

// UpdateBlockout rewrites the open session's draft, keeping its session ID.
func (d *Drafts) UpdateBlockout(env *Envelope, b calendar.Blockout) error {
	return d.put(blockoutKey, env, b.Clean())
}

// ClearBlockout ends the blockout session.
func (d *Drafts) ClearBlockout() error {
	return d.remove(blockoutKey)
}

// OpenFollowup starts a follow-up session for one lead.
func (d *Drafts) OpenFollowup(leadID string, s followup.State) (*Envelope, error) {
	now := d.now().UTC()
	env := &Envelope{Session: NewSessionID(now), Kind: KindFollowup, LeadID: leadID, OpenedAt: now}
	if err := d.put(followupKey(leadID), env, s); err != nil {
		return nil, err
	}
	return env, nil
}

// LoadFollowup returns the lead's open follow-up session.
func (d *Drafts) LoadFollowup(leadID string) (*Envelope, followup.State, error) {
	var s followup.State
	env, err := d.get(followupKey(leadID), &s)
	if err != nil {
		return nil, followup.State{}, err
	}
	s.Config = followup.NormalizeConfig(s.Config)
	return env, s, nil
}

// UpdateFollowup rewrites the lead's open session.
func (d *Drafts) UpdateFollowup(env *Envelope, s followup.State) error {
	return d.put(followupKey(env.LeadID), env, s)
}

// ClearFollowup ends the lead's follow-up session.
func (d *Drafts) ClearFollowup(leadID string) error {
	return d.remove(followupKey(leadID))
}

// List returns every open session, oldest first.
func (d *Drafts) List() ([]Envelope, error) {
	keys, err := d.client.KeysWithPrefix([]byte("draft/"))
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	var out []Envelope
	for _, k := range keys {
		env, err := d.get(string(k), nil)
		if errors.Is(err, ErrNoDraft) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *env)
	}
	// Session IDs are ULIDs, so lexical order is creation order.
	sort.Slice(out, func(i, j int) bool { return out[i].Session < out[j].Session })
	return out, nil
}
