// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	"liberty/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions tune factory behavior.
type SeedOptions struct {
	// DryRun builds entities without persisting them.
	DryRun bool
	// SkipBcrypt stores a plaintext password marker instead of hashing.
	// Much faster for large user counts; never use outside development.
	SkipBcrypt bool
	// MaxDays spreads created_at timestamps over this many days back.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, opts: opts, nextID: 1000}
}

func (f *Factory) spreadCreatedAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	daysBack := r.Intn(maxDays)
	hoursBack := r.Intn(24)
	minsBack := r.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

func (f *Factory) persist(entity interface{}, label string) error {
	if f.opts.DryRun {
		log.Printf("[dry-run] %s (no DB write)", label)
		return nil
	}
	return f.db.Create(entity).Error
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:  gofakeit.Username() + strconv.Itoa(gofakeit.Number(100, 999)),
		Email:     gofakeit.Email(),
		Name:      gofakeit.Name(),
		RoleLabel: "Civilian",
		Avatar:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		CreatedAt: f.spreadCreatedAt(),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCommunity constructs and persists a sample community.
func (f *Factory) CreateCommunity(creator *models.User, overrides ...func(*models.Community)) (*models.Community, error) {
	community := &models.Community{
		Name:        gofakeit.BS(),
		Description: gofakeit.Sentence(12),
		Image:       fmt.Sprintf("https://picsum.photos/seed/%s/400/400", gofakeit.UUID()),
		Banner:      fmt.Sprintf("https://picsum.photos/seed/%s/1200/300", gofakeit.UUID()),
		CreatorID:   creator.ID,
		CreatedAt:   f.spreadCreatedAt(),
	}
	for _, override := range overrides {
		override(community)
	}
	if f.opts.DryRun {
		f.nextID++
		community.ID = f.nextID
		return community, nil
	}
	if err := f.db.Create(community).Error; err != nil {
		return nil, err
	}
	return community, nil
}

// CreateMembership joins a user to a community.
func (f *Factory) CreateMembership(community *models.Community, user *models.User, role models.CommunityRole) (*models.CommunityMembership, error) {
	membership := &models.CommunityMembership{
		CommunityID: community.ID,
		UserID:      user.ID,
		Role:        role,
	}
	if err := f.persist(membership, fmt.Sprintf("membership user=%d community=%d", user.ID, community.ID)); err != nil {
		return nil, err
	}
	return membership, nil
}

// BuildPost constructs a post struct but does not persist it. Useful for
// batching.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Content:   gofakeit.Paragraph(1, 3, 8, "\n"),
		UserID:    user.ID,
		CreatedAt: f.spreadCreatedAt(),
	}

	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	if r.Float32() < 0.4 {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateComment persists a comment on a post.
func (f *Factory) CreateComment(post *models.Post, user *models.User) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(gofakeit.Number(4, 20)),
		PostID:  post.ID,
		UserID:  user.ID,
	}
	if err := f.persist(comment, "comment"); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateChatMessage persists a global chat message.
func (f *Factory) CreateChatMessage(user *models.User) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{
		Content: gofakeit.Sentence(gofakeit.Number(3, 15)),
		UserID:  user.ID,
	}
	if err := f.persist(msg, "chat message"); err != nil {
		return nil, err
	}
	return msg, nil
}

// CreateReport files a pending report against the given target.
func (f *Factory) CreateReport(reporter *models.User, targetType models.ReportTargetType, targetID string, overrides ...func(*models.Report)) (*models.Report, error) {
	report := &models.Report{
		ReporterID: reporter.ID,
		TargetType: targetType,
		TargetID:   targetID,
		Reason:     gofakeit.Sentence(gofakeit.Number(5, 15)),
		Status:     models.ReportStatusPending,
	}
	for _, override := range overrides {
		override(report)
	}
	if err := f.persist(report, "report"); err != nil {
		return nil, err
	}
	return report, nil
}

// CreateApplication files a pending application for the user.
func (f *Factory) CreateApplication(applicant *models.User, appType models.ApplicationType) (*models.Application, error) {
	app := &models.Application{
		UserID:  applicant.ID,
		Type:    appType,
		Content: fmt.Sprintf("%s\n\n%s", gofakeit.URL(), gofakeit.Paragraph(1, 2, 6, " ")),
		Status:  models.ApplicationStatusPending,
	}
	if err := f.persist(app, "application"); err != nil {
		return nil, err
	}
	return app, nil
}

// CreateTicket opens a support ticket for the user.
func (f *Factory) CreateTicket(user *models.User) (*models.SupportTicket, error) {
	ticket := &models.SupportTicket{
		UserID:   user.ID,
		UserName: user.Username,
		Status:   models.TicketStatusOpen,
	}
	if err := f.persist(ticket, "support ticket"); err != nil {
		return nil, err
	}
	return ticket, nil
}

// CreateTicketMessage appends a message to a ticket.
func (f *Factory) CreateTicketMessage(ticket *models.SupportTicket, sender *models.User) (*models.SupportMessage, error) {
	msg := &models.SupportMessage{
		TicketID: ticket.ID,
		SenderID: sender.ID,
		Content:  gofakeit.Sentence(gofakeit.Number(5, 20)),
	}
	if err := f.persist(msg, "support message"); err != nil {
		return nil, err
	}
	return msg, nil
}
