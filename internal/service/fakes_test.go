package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var rolePermissions = map[string][]string{
	model.RoleAdmin: {"ASSET_MANAGE", "PAYMENT_MANAGE", "USER_MANAGE"},
}

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[string]model.User
	fails error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]model.User{}}
}

func (f *fakeUsers) find(match func(model.User) bool, key string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails != nil {
		return model.User{}, f.fails
	}
	for _, u := range f.byID {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, apierror.UserNotFound.WithDetails(key)
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (model.User, error) {
	return f.find(func(u model.User) bool { return u.ID == id }, id)
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (model.User, error) {
	return f.find(func(u model.User) bool { return strings.EqualFold(u.Username, username) }, username)
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (model.User, error) {
	return f.find(func(u model.User) bool { return strings.EqualFold(u.Email, email) }, email)
}

func (f *fakeUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := f.FindByUsername(ctx, username)
	if errors.Is(err, apierror.UserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.FindByEmail(ctx, email)
	if errors.Is(err, apierror.UserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeUsers) Create(_ context.Context, user model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Username, user.Username) {
			return apierror.UsernameExists
		}
		if strings.EqualFold(u.Email, user.Email) {
			return apierror.EmailExists
		}
	}
	roles := make([]model.Role, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, model.Role{Name: r.Name, Permissions: rolePermissions[r.Name]})
	}
	user.Roles = roles
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUsers) MarkVerified(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return apierror.UserNotFound
	}
	u.Verified = true
	f.byID[userID] = u
	return nil
}

func (f *fakeUsers) UpdateFullName(_ context.Context, userID string, fullName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return apierror.UserNotFound
	}
	u.FullName = fullName
	f.byID[userID] = u
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, userID string, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return apierror.UserNotFound
	}
	u.PasswordHash = passwordHash
	f.byID[userID] = u
	return nil
}

type fakeRefreshTokens struct {
	mu     sync.Mutex
	byHash map[string]model.RefreshToken
}

func newFakeRefreshTokens() *fakeRefreshTokens {
	return &fakeRefreshTokens{byHash: map[string]model.RefreshToken{}}
}

func (f *fakeRefreshTokens) Create(_ context.Context, t model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byHash[t.TokenHash] = t
	return nil
}

func (f *fakeRefreshTokens) FindByHash(_ context.Context, hash string) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byHash[hash]
	if !ok {
		return model.RefreshToken{}, apierror.RefreshTokenInvalid
	}
	return t, nil
}

func (f *fakeRefreshTokens) Rotate(_ context.Context, hash string, now time.Time) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byHash[hash]
	if !ok || !t.Live(now) {
		return model.RefreshToken{}, apierror.RefreshTokenInvalid
	}
	before := t
	t.Revoked = true
	t.RevokedAt = &now
	f.byHash[hash] = t
	return before, nil
}

func (f *fakeRefreshTokens) revokeWhere(match func(model.RefreshToken) bool, now time.Time) int64 {
	var n int64
	for hash, t := range f.byHash {
		if !t.Revoked && match(t) {
			t.Revoked = true
			t.RevokedAt = &now
			f.byHash[hash] = t
			n++
		}
	}
	return n
}

func (f *fakeRefreshTokens) Revoke(_ context.Context, hash string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokeWhere(func(t model.RefreshToken) bool { return t.TokenHash == hash }, now)
	return nil
}

func (f *fakeRefreshTokens) RevokeFamily(_ context.Context, familyID string, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revokeWhere(func(t model.RefreshToken) bool { return t.FamilyID == familyID }, now), nil
}

func (f *fakeRefreshTokens) RevokeAllForUser(_ context.Context, userID string, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revokeWhere(func(t model.RefreshToken) bool { return t.UserID == userID }, now), nil
}

func (f *fakeRefreshTokens) ListActive(_ context.Context, userID string, now time.Time) ([]model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.RefreshToken, 0)
	for _, t := range f.byHash {
		if t.UserID == userID && t.Live(now) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRefreshTokens) CleanExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for hash, t := range f.byHash {
		if !now.Before(t.ExpiresAt) {
			delete(f.byHash, hash)
			n++
		}
	}
	return n, nil
}

func (f *fakeRefreshTokens) countRevoked() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.byHash {
		if t.Revoked {
			n++
		}
	}
	return n
}

type fakeCodes struct {
	mu       sync.Mutex
	byID     map[string]model.EphemeralToken
	notFound *apierror.APIError
}

func newFakeCodes(notFound *apierror.APIError) *fakeCodes {
	return &fakeCodes{byID: map[string]model.EphemeralToken{}, notFound: notFound}
}

func (f *fakeCodes) Create(_ context.Context, t model.EphemeralToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Code == t.Code {
			return model.ErrDuplicateKey
		}
	}
	f.byID[t.ID] = t
	return nil
}

func (f *fakeCodes) FindByCode(_ context.Context, code string) (model.EphemeralToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byID {
		if t.Code == code {
			return t, nil
		}
	}
	return model.EphemeralToken{}, f.notFound
}

func (f *fakeCodes) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := f.FindByCode(ctx, code)
	return err == nil, nil
}

func (f *fakeCodes) Consume(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return false, nil
	}
	delete(f.byID, id)
	return true, nil
}

func (f *fakeCodes) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, t := range f.byID {
		if t.UserID == userID {
			delete(f.byID, id)
		}
	}
	return nil
}

func (f *fakeCodes) CleanExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, t := range f.byID {
		if t.Expired(now) {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeCodes) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeDenylist struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func newFakeDenylist() *fakeDenylist {
	return &fakeDenylist{ids: map[string]time.Time{}}
}

func (f *fakeDenylist) Add(_ context.Context, t model.InvalidatedToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids[t.ID] = t.ExpiresAt
	return nil
}

func (f *fakeDenylist) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[id]
	return ok, nil
}

func (f *fakeDenylist) CleanExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, exp := range f.ids {
		if !now.Before(exp) {
			delete(f.ids, id)
			n++
		}
	}
	return n, nil
}

type sentMail struct {
	To       string
	Template string
	Data     map[string]any
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to string, templateName string, data map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{To: to, Template: templateName, Data: data})
	return nil
}

func (f *fakeMailer) last() sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMail{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeCollections struct {
	mu   sync.Mutex
	byID map[string]model.Collection
}

func newFakeCollections() *fakeCollections {
	return &fakeCollections{byID: map[string]model.Collection{}}
}

func (f *fakeCollections) Create(_ context.Context, c model.Collection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.OwnerID == c.OwnerID && existing.Name == c.Name {
			return apierror.CollectionExists
		}
	}
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCollections) FindByID(_ context.Context, id string) (model.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return model.Collection{}, apierror.CollectionNotFound.WithDetails(id)
	}
	return c, nil
}

func (f *fakeCollections) ListByOwner(_ context.Context, ownerID string, page int, limit int) ([]model.Collection, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]model.Collection, 0)
	for _, c := range f.byID {
		if c.OwnerID == ownerID {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, page, limit), len(all), nil
}

func (f *fakeCollections) Update(_ context.Context, c model.Collection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[c.ID]; !ok {
		return apierror.CollectionNotFound
	}
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCollections) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return apierror.CollectionNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeAssets struct {
	mu   sync.Mutex
	byID map[string]model.Asset
	// owners resolves a collection to its owner for trash listings.
	owners *fakeCollections
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{byID: map[string]model.Asset{}}
}

func (f *fakeAssets) Create(_ context.Context, a model.Asset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.StorageKey == a.StorageKey {
			return model.ErrDuplicateKey
		}
	}
	f.byID[a.ID] = a
	return nil
}

func (f *fakeAssets) FindByID(_ context.Context, id string) (model.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return model.Asset{}, apierror.AssetNotFound.WithDetails(id)
	}
	return a, nil
}

func (f *fakeAssets) ListByCollection(_ context.Context, collectionID string, page int, limit int) ([]model.Asset, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]model.Asset, 0)
	for _, a := range f.byID {
		if a.CollectionID == collectionID && !a.Deleted {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Filename < all[j].Filename })
	if limit <= 0 {
		return all, len(all), nil
	}
	return paginate(all, page, limit), len(all), nil
}

func (f *fakeAssets) SoftDelete(_ context.Context, id string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok || a.Deleted {
		return false, nil
	}
	a.Deleted = true
	a.UpdatedAt = now
	f.byID[id] = a
	return true, nil
}

func (f *fakeAssets) Update(_ context.Context, a model.Asset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[a.ID]
	if !ok || existing.Deleted {
		return apierror.AssetNotFound.WithDetails(a.ID)
	}
	f.byID[a.ID] = a
	return nil
}

func (f *fakeAssets) ListDeletedByOwner(ctx context.Context, ownerID string, page int, limit int) ([]model.Asset, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]model.Asset, 0)
	for _, a := range f.byID {
		if !a.Deleted || f.owners == nil {
			continue
		}
		c, err := f.owners.FindByID(ctx, a.CollectionID)
		if err == nil && c.OwnerID == ownerID {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Filename < all[j].Filename })
	return paginate(all, page, limit), len(all), nil
}

func (f *fakeAssets) Restore(_ context.Context, id string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok || !a.Deleted {
		return false, nil
	}
	a.Deleted = false
	a.UpdatedAt = now
	f.byID[id] = a
	return true, nil
}

func (f *fakeAssets) HardDelete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return apierror.AssetNotFound.WithDetails(id)
	}
	delete(f.byID, id)
	return nil
}

type fakeProfiles struct {
	mu     sync.Mutex
	byUser map[string]model.Profile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byUser: map[string]model.Profile{}}
}

func (f *fakeProfiles) Create(_ context.Context, p model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byUser[p.UserID]; ok {
		return apierror.ProfileExists
	}
	f.byUser[p.UserID] = p
	return nil
}

func (f *fakeProfiles) FindByUser(_ context.Context, userID string) (model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUser[userID]
	if !ok {
		return model.Profile{}, apierror.ProfileNotFound
	}
	return p, nil
}

func (f *fakeProfiles) Update(_ context.Context, p model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byUser[p.UserID]; !ok {
		return apierror.ProfileNotFound
	}
	f.byUser[p.UserID] = p
	return nil
}

func (f *fakeProfiles) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byUser[userID]; !ok {
		return apierror.ProfileNotFound
	}
	delete(f.byUser, userID)
	return nil
}

type fakeLinks struct {
	mu         sync.Mutex
	byID       map[string]model.SharedLink
	createHook func(link model.SharedLink) error
}

func newFakeLinks() *fakeLinks {
	return &fakeLinks{byID: map[string]model.SharedLink{}}
}

func (f *fakeLinks) Create(_ context.Context, l model.SharedLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createHook != nil {
		if err := f.createHook(l); err != nil {
			return err
		}
	}
	for _, existing := range f.byID {
		if existing.CollectionID == l.CollectionID {
			return apierror.SharedLinkAlreadyExists
		}
		if existing.PublicID == l.PublicID {
			return model.ErrDuplicateKey
		}
	}
	f.byID[l.ID] = l
	return nil
}

func (f *fakeLinks) find(match func(model.SharedLink) bool) (model.SharedLink, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.byID {
		if match(l) {
			return l, true
		}
	}
	return model.SharedLink{}, false
}

func (f *fakeLinks) FindByPublicID(_ context.Context, publicID string) (model.SharedLink, error) {
	l, ok := f.find(func(l model.SharedLink) bool { return l.PublicID == publicID })
	if !ok {
		return model.SharedLink{}, apierror.SharedLinkNotFound
	}
	return l, nil
}

func (f *fakeLinks) FindByCollectionID(_ context.Context, collectionID string) (model.SharedLink, error) {
	l, ok := f.find(func(l model.SharedLink) bool { return l.CollectionID == collectionID })
	if !ok {
		return model.SharedLink{}, apierror.SharedLinkNotFound
	}
	return l, nil
}

func (f *fakeLinks) ExistsByPublicID(_ context.Context, publicID string) (bool, error) {
	_, ok := f.find(func(l model.SharedLink) bool { return l.PublicID == publicID })
	return ok, nil
}

func (f *fakeLinks) ExistsByCollectionID(_ context.Context, collectionID string) (bool, error) {
	_, ok := f.find(func(l model.SharedLink) bool { return l.CollectionID == collectionID })
	return ok, nil
}

func (f *fakeLinks) UpdatePassword(_ context.Context, id string, hash *string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.byID[id]
	if !ok {
		return apierror.SharedLinkNotFound
	}
	l.PasswordHash = hash
	l.UpdatedAt = now
	f.byID[id] = l
	return nil
}

func (f *fakeLinks) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return apierror.SharedLinkNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []model.AuditEntry
	err     error
	block   chan struct{}
}

func (f *fakeAuditStore) Log(_ context.Context, e model.AuditEntry) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAuditStore) Query(_ context.Context, q model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.AuditEntry, 0)
	for _, e := range f.entries {
		if q.UserID == "" || e.UserID == q.UserID {
			out = append(out, e)
		}
	}
	return out, model.NewMeta(1, 50, len(out)), nil
}

func (f *fakeAuditStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func paginate[T any](items []T, page int, limit int) []T {
	start := (page - 1) * limit
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func testHasher() *BcryptHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}
