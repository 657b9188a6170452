package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL   = 24 * time.Hour
	minPasswordLength = 6
	issuer            = "bookwatch"
)

type account struct {
	user User
	hash []byte
}

// MemoryProvider keeps accounts in memory and issues HS256 JWTs. Tokens are
// tracked by their jti so sign-out can revoke them.
type MemoryProvider struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	parser *jwt.Parser
	log    *slog.Logger

	mu       sync.Mutex
	accounts map[string]*account // by normalized email
	tokens   map[string]string   // jti -> uid
	live     map[string]int      // uid -> live token count
	users    map[string]User     // by uid
	watchers map[uint64]StateFunc
	nextID   uint64
}

// Option configures a MemoryProvider.
type Option func(*MemoryProvider)

// WithTokenTTL sets how long issued tokens stay valid.
func WithTokenTTL(d time.Duration) Option {
	return func(p *MemoryProvider) {
		p.ttl = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *MemoryProvider) {
		p.log = l
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(p *MemoryProvider) {
		p.cost = cost
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *MemoryProvider) {
		p.now = now
	}
}

// NewMemoryProvider creates a provider signing tokens with secret.
func NewMemoryProvider(secret []byte, opts ...Option) *MemoryProvider {
	p := &MemoryProvider{
		secret:   secret,
		ttl:      defaultTokenTTL,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		log:      slog.Default(),
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		live:     make(map[string]int),
		users:    make(map[string]User),
		watchers: make(map[uint64]StateFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	return p
}

// SignUp creates an account and signs it in.
func (p *MemoryProvider) SignUp(_ context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if len(password) < minPasswordLength {
		return Session{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hashing password: %w", err)
	}

	p.mu.Lock()
	if _, ok := p.accounts[email]; ok {
		p.mu.Unlock()
		return Session{}, ErrEmailTaken
	}
	user := User{UID: uuid.NewString(), Email: email, CreatedAt: p.now().UTC()}
	p.accounts[email] = &account{user: user, hash: hash}
	p.users[user.UID] = user
	p.mu.Unlock()

	p.log.Info("account created", "uid", user.UID)
	return p.issue(user)
}

// SignIn checks credentials and issues a new token.
func (p *MemoryProvider) SignIn(_ context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}

	p.mu.Lock()
	acc, ok := p.accounts[email]
	p.mu.Unlock()
	if !ok {
		return Session{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return p.issue(acc.user)
}

// SignOut revokes token. Revoking an unknown token is an error.
func (p *MemoryProvider) SignOut(_ context.Context, token string) error {
	jti, _, err := p.parse(token)
	if err != nil {
		return err
	}
	if !p.revoke(jti) {
		return ErrInvalidToken
	}
	return nil
}

// CurrentUser resolves token to its user.
func (p *MemoryProvider) CurrentUser(_ context.Context, token string) (User, error) {
	jti, exp, err := p.parse(token)
	if err != nil {
		return User{}, err
	}

	if !p.now().Before(exp) {
		p.revoke(jti)
		return User{}, ErrInvalidToken
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	uid, ok := p.tokens[jti]
	if !ok {
		return User{}, ErrInvalidToken
	}
	return p.users[uid], nil
}

// OnAuthStateChanged registers fn. Callbacks run synchronously on the
// goroutine that changed the state.
func (p *MemoryProvider) OnAuthStateChanged(fn StateFunc) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.watchers[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watchers, id)
			p.mu.Unlock()
		})
	}
}

func (p *MemoryProvider) issue(user User) (Session, error) {
	now := p.now()
	exp := now.Add(p.ttl)
	jti := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   user.UID,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return Session{}, fmt.Errorf("signing token: %w", err)
	}

	p.mu.Lock()
	p.tokens[jti] = user.UID
	p.live[user.UID]++
	first := p.live[user.UID] == 1
	p.mu.Unlock()

	if first {
		p.emit(StateChange{User: user, SignedIn: true})
	}
	return Session{Token: signed, User: user, ExpiresAt: exp}, nil
}

// revoke drops jti and reports whether it was live.
func (p *MemoryProvider) revoke(jti string) bool {
	p.mu.Lock()
	uid, ok := p.tokens[jti]
	if !ok {
		p.mu.Unlock()
		return false
	}
	delete(p.tokens, jti)
	p.live[uid]--
	last := p.live[uid] == 0
	if last {
		delete(p.live, uid)
	}
	user := p.users[uid]
	p.mu.Unlock()

	if last {
		p.emit(StateChange{User: user, SignedIn: false})
	}
	return true
}

func (p *MemoryProvider) parse(token string) (jti string, exp time.Time, err error) {
	claims := &jwt.RegisteredClaims{}
	_, err = p.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.ID == "" || claims.ExpiresAt == nil || claims.Issuer != issuer {
		return "", time.Time{}, ErrInvalidToken
	}
	return claims.ID, claims.ExpiresAt.Time, nil
}

func (p *MemoryProvider) emit(change StateChange) {
	p.mu.Lock()
	fns := make([]StateFunc, 0, len(p.watchers))
	for _, fn := range p.watchers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	p.log.Debug("auth state changed", "uid", change.User.UID, "signed_in", change.SignedIn)
	for _, fn := range fns {
		fn(change)
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
