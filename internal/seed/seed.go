package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	"liberty/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	SkipBcrypt  bool
}

// Seed populates the database with demo data: users across all role tiers,
// communities with memberships, posts, comments, global chat traffic, and a
// working set of pending reports, applications, and support tickets so the
// moderation dashboard has something to show.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	factory := NewFactory(db, SeedOptions{SkipBcrypt: opts.SkipBcrypt})

	users, err := createUsers(db, factory, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d users created", len(users))

	owner := users[0]
	if err := Communities(db, owner.ID); err != nil {
		return fmt.Errorf("failed to seed built-in communities: %w", err)
	}

	communities, err := createCommunities(db, factory, users)
	if err != nil {
		return fmt.Errorf("failed to create communities: %w", err)
	}
	log.Printf("%d communities available", len(communities))

	posts, err := createPosts(factory, users, communities, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("%d posts created", len(posts))

	if err := createComments(factory, users, posts); err != nil {
		return fmt.Errorf("failed to create comments: %w", err)
	}

	if err := createChatTraffic(factory, users); err != nil {
		return fmt.Errorf("failed to create chat messages: %w", err)
	}

	if err := createModerationWorkload(factory, users, posts); err != nil {
		return fmt.Errorf("failed to create moderation workload: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE support_messages, support_tickets, applications, reports,
chat_messages, comments, posts, community_memberships, communities, users
RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createUsers(db *gorm.DB, factory *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	// Fixed accounts covering every tier, so login during development is
	// predictable: owner, admin, moderator, and a plain civilian.
	fixed := []models.User{
		{Username: "liberty_owner", GlobalRole: models.GlobalRoleOwner, RoleLabel: "Owner"},
		{Username: "liberty_admin", GlobalRole: models.GlobalRoleAdmin, RoleLabel: "Administration"},
		{Username: "liberty_mod", GlobalRole: models.GlobalRoleModerator, RoleLabel: "Moderation"},
		{Username: "test", GlobalRole: models.GlobalRoleCivilian, RoleLabel: "Civilian"},
	}
	for i := range fixed {
		user := fixed[i]
		user.Email = user.Username + "@example.com"
		user.Password = string(hashedPassword)
		user.Name = user.Username
		user.Avatar = fmt.Sprintf("https://i.pravatar.cc/150?u=%s", user.Username)
		if err := db.Where(models.User{Username: user.Username}).
			FirstOrCreate(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, &user)
	}

	for i := len(users); i < count; i++ {
		user, err := factory.CreateUser(func(u *models.User) {
			// Suffix keeps generated usernames unique across large runs.
			u.Username = u.Username + strconv.Itoa(i)
			u.Email = u.Username + "@example.com"
		})
		if err != nil {
			log.Printf("Failed to create user %d: %v", i, err)
			continue
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}

	return users, nil
}

func createCommunities(db *gorm.DB, factory *Factory, users []*models.User) ([]*models.Community, error) {
	var communities []*models.Community

	var builtIn []models.Community
	if err := db.Find(&builtIn).Error; err != nil {
		return nil, err
	}
	for i := range builtIn {
		communities = append(communities, &builtIn[i])
	}

	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// A handful of user-created communities with member rosters.
	for i := 0; i < 5 && len(users) > 1; i++ {
		creator := users[r.Intn(len(users))]
		community, err := factory.CreateCommunity(creator)
		if err != nil {
			return nil, err
		}
		communities = append(communities, community)

		for j := 0; j < 8; j++ {
			member := users[r.Intn(len(users))]
			if member.ID == creator.ID {
				continue
			}
			role := models.CommunityRoleMember
			if j == 0 {
				role = models.CommunityRoleModerator
			}
			// Duplicate member picks just fail the PK; ignore them.
			_, _ = factory.CreateMembership(community, member, role)
		}
	}

	return communities, nil
}

func createPosts(factory *Factory, users []*models.User, communities []*models.Community, count int) ([]*models.Post, error) {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	posts := make([]*models.Post, 0, count)

	for i := 0; i < count; i++ {
		user := users[r.Intn(len(users))]
		post := factory.BuildPost(user, func(p *models.Post) {
			// Roughly a third of posts land inside a community.
			if len(communities) > 0 && r.Float32() < 0.35 {
				id := communities[r.Intn(len(communities))].ID
				p.CommunityID = &id
			}
		})
		posts = append(posts, post)
	}

	// Insert in chunks to keep statement sizes reasonable.
	const chunk = 200
	for start := 0; start < len(posts); start += chunk {
		end := start + chunk
		if end > len(posts) {
			end = len(posts)
		}
		if err := factory.CreatePostsBatch(posts[start:end]); err != nil {
			return nil, err
		}
	}

	return posts, nil
}

func createComments(factory *Factory, users []*models.User, posts []*models.Post) error {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for _, post := range posts {
		for i := 0; i < r.Intn(4); i++ {
			if _, err := factory.CreateComment(post, users[r.Intn(len(users))]); err != nil {
				return err
			}
		}
	}
	return nil
}

func createChatTraffic(factory *Factory, users []*models.User) error {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < 100; i++ {
		if _, err := factory.CreateChatMessage(users[r.Intn(len(users))]); err != nil {
			return err
		}
	}
	return nil
}

// createModerationWorkload fills the staff dashboard queues: pending reports
// across target types, verification and staff applications, and a couple of
// open support tickets with short conversations.
func createModerationWorkload(factory *Factory, users []*models.User, posts []*models.Post) error {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < 10 && len(posts) > 0; i++ {
		reporter := users[r.Intn(len(users))]
		post := posts[r.Intn(len(posts))]
		if _, err := factory.CreateReport(reporter, models.ReportTargetPost,
			strconv.FormatUint(uint64(post.ID), 10)); err != nil {
			return err
		}
	}
	for i := 0; i < 3; i++ {
		reporter := users[r.Intn(len(users))]
		target := users[r.Intn(len(users))]
		if _, err := factory.CreateReport(reporter, models.ReportTargetUser,
			strconv.FormatUint(uint64(target.ID), 10)); err != nil {
			return err
		}
	}

	for i := 0; i < 5; i++ {
		applicant := users[r.Intn(len(users))]
		appType := models.ApplicationTypeVerification
		if i%3 == 2 {
			appType = models.ApplicationTypeStaff
		}
		if _, err := factory.CreateApplication(applicant, appType); err != nil {
			return err
		}
	}

	for i := 0; i < 3; i++ {
		user := users[r.Intn(len(users))]
		ticket, err := factory.CreateTicket(user)
		if err != nil {
			return err
		}
		for j := 0; j < 1+r.Intn(3); j++ {
			if _, err := factory.CreateTicketMessage(ticket, user); err != nil {
				return err
			}
		}
	}

	return nil
}
