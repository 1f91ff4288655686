// Package keep is a minimal Google Keep client: it authenticates through
// Google Play Services, creates notes, lists and labels locally and pushes
// them with an explicit Sync.
package keep

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/ne2keep/internal/entities"
)

const (
	DefaultAuthURL = "https://android.clients.google.com/auth"
	DefaultAPIURL  = "https://www.googleapis.com/notes/v1/"

	defaultTimeout = 30 * time.Second
)

// Options configures a Keep session. Zero values select the public Google
// endpoints, a 30 second timeout and a random device id.
type Options struct {
	AuthURL    string
	APIURL     string
	HTTPClient *http.Client
	DeviceID   string
	Now        func() time.Time
}

// Keep is one authenticated session. It is not safe for concurrent use.
type Keep struct {
	auth *authClient
	api  *apiClient
	now  func() time.Time

	email       string
	deviceID    string
	masterToken string
	authToken   string

	sessionID string
	version   string

	labels []*Label
	nodes  []*Node
}

func New(opts Options) *Keep {
	if opts.AuthURL == "" {
		opts.AuthURL = DefaultAuthURL
	}
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if opts.DeviceID == "" {
		opts.DeviceID = NewDeviceID()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Keep{
		auth:      &authClient{httpClient: opts.HTTPClient, url: opts.AuthURL},
		api:       &apiClient{httpClient: opts.HTTPClient, baseURL: opts.APIURL},
		now:       opts.Now,
		deviceID:  opts.DeviceID,
		sessionID: newSessionID(opts.Now()),
	}
}

// NewDeviceID returns a random 16 hex digit android id.
func NewDeviceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func (k *Keep) Email() string       { return k.email }
func (k *Keep) DeviceID() string    { return k.deviceID }
func (k *Keep) MasterToken() string { return k.masterToken }

// Login authenticates with a password and downloads the account state.
func (k *Keep) Login(ctx context.Context, email, password string) error {
	masterToken, err := k.auth.masterLogin(ctx, email, password, k.deviceID)
	if err != nil {
		return fmt.Errorf("master login: %w", err)
	}
	return k.Resume(ctx, email, masterToken)
}

// Resume authenticates with a previously obtained master token and
// downloads the account state.
func (k *Keep) Resume(ctx context.Context, email, masterToken string) error {
	k.email = email
	k.masterToken = masterToken

	if err := k.refreshAuthToken(ctx); err != nil {
		return err
	}

	return k.Sync(ctx)
}

func (k *Keep) refreshAuthToken(ctx context.Context) error {
	token, err := k.auth.oauth(ctx, k.email, k.masterToken, k.deviceID)
	if err != nil {
		return fmt.Errorf("oauth exchange: %w", err)
	}
	k.authToken = token
	return nil
}

// Labels returns the labels that are not deleted.
func (k *Keep) Labels() []*Label {
	labels := make([]*Label, 0, len(k.labels))
	for _, l := range k.labels {
		if !l.deleted {
			labels = append(labels, l)
		}
	}
	return labels
}

// FindLabel returns the label named exactly name, or nil. Names are compared
// case-sensitively, so "shopping" does not match "Shopping".
func (k *Keep) FindLabel(name string) *Label {
	for _, l := range k.Labels() {
		if l.name == name {
			return l
		}
	}
	return nil
}

// CreateLabel adds a label locally. It reaches the server on the next Sync.
func (k *Keep) CreateLabel(name string) (*Label, error) {
	if k.FindLabel(name) != nil {
		return nil, fmt.Errorf("label %q already exists", name)
	}

	now := k.now()
	l := &Label{
		id:      newLabelID(now),
		name:    name,
		created: now,
		updated: now,
		dirty:   true,
	}
	k.labels = append(k.labels, l)
	return l, nil
}

// CreateNote adds a text note locally.
func (k *Keep) CreateNote(title, text string) *Node {
	note := k.newNode(NodeTypeNote, rootID)
	note.title = title

	body := k.newNode(NodeTypeListItem, note.id)
	body.text = text
	note.children = []*Node{body}

	k.nodes = append(k.nodes, note)
	return note
}

// CreateList adds a checklist locally, keeping entries in the given order.
func (k *Keep) CreateList(title string, entries []entities.ListEntry) *Node {
	list := k.newNode(NodeTypeList, rootID)
	list.title = title

	sort := newListSort()
	for _, e := range entries {
		item := k.newNode(NodeTypeListItem, list.id)
		item.text = e.Text
		item.checked = e.Checked
		item.sort = sort
		sort -= sortDelta
		list.children = append(list.children, item)
	}

	k.nodes = append(k.nodes, list)
	return list
}

func (k *Keep) newNode(typ NodeType, parentID string) *Node {
	now := k.now()
	return &Node{
		id:       newNodeID(now),
		parentID: parentID,
		typ:      typ,
		color:    entities.ColorWhite,
		created:  now,
		updated:  now,
		dirty:    true,
	}
}

// Sync uploads every dirty node and label and applies the server response.
// An expired API token is refreshed once from the master token.
func (k *Keep) Sync(ctx context.Context) error {
	if k.authToken == "" {
		return ErrNotLoggedIn
	}

	err := k.sync(ctx)
	if errors.Is(err, ErrAuthentication) && k.masterToken != "" {
		if err := k.refreshAuthToken(ctx); err != nil {
			return err
		}
		err = k.sync(ctx)
	}
	return err
}

func (k *Keep) sync(ctx context.Context) error {
	nodes := k.dirtyNodes()
	labels := k.dirtyLabels()

	first := true
	for {
		req := &changesRequest{
			Nodes:           []wireNode{},
			ClientTimestamp: formatTimestamp(k.now()),
			RequestHeader: requestHeader{
				ClientSessionID: k.sessionID,
				ClientPlatform:  "ANDROID",
				ClientVersion:   clientVersion{Major: "9", Minor: "9", Build: "9", Revision: "9"},
				Capabilities:    defaultCapabilities,
			},
			TargetVersion: k.version,
		}

		if first {
			for _, n := range nodes {
				req.Nodes = append(req.Nodes, n.wire())
			}
			if len(labels) > 0 {
				req.UserInfo = &userInfo{}
				for _, l := range k.labels {
					req.UserInfo.Labels = append(req.UserInfo.Labels, l.wire())
				}
			}
		}

		resp, err := k.api.changes(ctx, k.authToken, req)
		if err != nil {
			return err
		}
		if resp.ForceFullResync {
			return ErrResyncRequired
		}

		if first {
			for _, n := range nodes {
				n.dirty = false
			}
			for _, l := range labels {
				l.dirty = false
			}
			first = false
		}

		if resp.UserInfo != nil {
			k.mergeLabels(resp.UserInfo.Labels)
		}
		k.mergeNodes(resp.Nodes)

		if !resp.Truncated {
			k.version = resp.ToVersion
			return nil
		}
		if resp.ToVersion == "" || resp.ToVersion == req.TargetVersion {
			return fmt.Errorf("%w: truncated at version %q", ErrSyncStalled, req.TargetVersion)
		}
		k.version = resp.ToVersion
	}
}

func (k *Keep) dirtyNodes() []*Node {
	var dirty []*Node
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if n.dirty {
				dirty = append(dirty, n)
			}
			walk(n.children)
		}
	}
	walk(k.nodes)
	return dirty
}

func (k *Keep) dirtyLabels() []*Label {
	var dirty []*Label
	for _, l := range k.labels {
		if l.dirty {
			dirty = append(dirty, l)
		}
	}
	return dirty
}

func (k *Keep) mergeLabels(remote []wireLabel) {
	byID := make(map[string]*Label, len(k.labels))
	for _, l := range k.labels {
		byID[l.id] = l
	}

	for _, r := range remote {
		l, ok := byID[r.MainID]
		if !ok {
			l = &Label{id: r.MainID}
			k.labels = append(k.labels, l)
			byID[r.MainID] = l
		}
		if l.dirty {
			continue
		}
		l.name = r.Name
		l.deleted = isDeleted(r.Timestamps)
		if t, err := time.Parse(timestampLayout, r.Timestamps.Created); err == nil {
			l.created = t
		}
		if t, err := time.Parse(timestampLayout, r.Timestamps.Updated); err == nil {
			l.updated = t
		}
	}
}

// mergeNodes records server ids for nodes created in this session. Nodes
// created elsewhere are not tracked.
func (k *Keep) mergeNodes(remote []serverNode) {
	if len(remote) == 0 {
		return
	}

	byID := make(map[string]*Node)
	var index func(nodes []*Node)
	index = func(nodes []*Node) {
		for _, n := range nodes {
			byID[n.id] = n
			index(n.children)
		}
	}
	index(k.nodes)

	for _, r := range remote {
		n, ok := byID[r.ID]
		if !ok {
			continue
		}
		if r.ServerID != "" {
			n.serverID = r.ServerID
		}
		if r.BaseVersion != "" {
			n.baseVersion = string(r.BaseVersion)
		}
	}

	for _, n := range k.nodes {
		for _, child := range n.children {
			child.parentServerID = n.serverID
		}
	}
}
