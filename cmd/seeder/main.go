package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/pawgraph"
	"github.com/poiesic/pawgraph/core"
)

// Seed is the JSON shape accepted by -src.
type Seed struct {
	Users []*core.User `json:"users"`
	Pets  []*core.Pet  `json:"pets"`
	Posts []*core.Post `json:"posts"`
}

var (
	seedFileName = flag.String("src", "", "JSON file of seed data (defaults to the demo data set)")
	dbPath       = flag.String("db", "./pawgraph_db", "database directory")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

type demoPost struct {
	author   core.ID
	username string
	name     string
	photo    string
	pet      string
	petType  string
	content  string
	image    string
	likes    int
	comments int
	age      time.Duration
}

var demo = []demoPost{
	{1, "Alice", "Alice Moreira", "https://randomuser.me/api/portraits/women/65.jpg", "Luna", "dog",
		"Meet Luna! She's looking for a loving home. 🐾", "https://images.unsplash.com/photo-1518717758536-85ae29035b6d?w=800&q=80", 12, 2, time.Hour},
	{2, "Bob", "Bob Carvalho", "https://randomuser.me/api/portraits/men/1.jpg", "Thor", "dog",
		"Thor is a playful pup ready for adventure! 🐶", "https://images.unsplash.com/photo-1558788353-f76d92427f16?w=800&q=80", 8, 1, 2 * time.Hour},
	{3, "Clara", "Clara Nunes", "https://randomuser.me/api/portraits/women/43.jpg", "Max", "dog",
		"Adopt Max and gain a loyal friend for life! 🦴", "https://images.unsplash.com/photo-1502672023488-70e25813f145?w=800&q=80", 20, 4, 5 * time.Hour},
	{4, "David", "David Rocha", "https://randomuser.me/api/portraits/men/22.jpg", "Whiskers", "cat",
		"My cat Whiskers enjoying the sunshine today! 😺", "https://images.unsplash.com/photo-1533738363-b7f9aef128ce?w=800&q=80", 15, 3, 8 * time.Hour},
	{5, "Emma", "Emma Lopes", "https://randomuser.me/api/portraits/women/33.jpg", "", "",
		"Found this little guy abandoned. Taking him to the vet now. 💔", "https://images.unsplash.com/photo-1511044568932-338cba0ad803?w=800&q=80", 32, 7, 12 * time.Hour},
	{6, "Frank", "Frank Teixeira", "https://randomuser.me/api/portraits/men/45.jpg", "Buddy", "dog",
		"Beach day with my best buddy! 🏖️", "https://images.unsplash.com/photo-1477884213360-7e9d7dcc1e48?w=800&q=80", 18, 2, 18 * time.Hour},
	{7, "Grace", "Grace Pinto", "https://randomuser.me/api/portraits/women/22.jpg", "Daisy", "dog",
		"My new rescue puppy! Meet Daisy 🌼", "https://images.unsplash.com/photo-1583511655857-d19b40a7a54e?w=800&q=80", 27, 5, 24 * time.Hour},
	{8, "Henry", "Henry Matos", "https://randomuser.me/api/portraits/men/32.jpg", "", "",
		"Just donated to the local animal shelter. Every bit helps! 🙏", "https://images.unsplash.com/photo-1601758124510-52d02ddb7cbd?w=800&q=80", 22, 3, 36 * time.Hour},
}

// demoSeed returns users 1-8 and posts 101-108 with their demo counters.
func demoSeed(now time.Time) *Seed {
	seed := &Seed{}
	for i, d := range demo {
		seed.Users = append(seed.Users, &core.User{
			Id:           d.author,
			Name:         d.name,
			Username:     d.username,
			ProfileImage: d.photo,
		})
		if d.pet != "" {
			seed.Pets = append(seed.Pets, &core.Pet{OwnerId: d.author, Name: d.pet, Type: d.petType})
		}
		seed.Posts = append(seed.Posts, &core.Post{
			Id:            core.ID(101 + i),
			AuthorId:      d.author,
			Content:       d.content,
			MediaUrls:     []string{d.image},
			CreatedAt:     now.Add(-d.age),
			LikesCount:    d.likes,
			CommentsCount: d.comments,
		})
	}
	return seed
}

func loadSeed(filename string) (*Seed, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	seed := &Seed{}
	if err := json.Unmarshal(data, seed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return seed, nil
}

// apply stores the seed. Users and posts that already exist are skipped so
// seeding twice is harmless.
func apply(ctx context.Context, db *pawgraph.Database, seed *Seed) error {
	for _, user := range seed.Users {
		if user.Id != 0 {
			if _, err := db.UserRepository().GetUser(ctx, user.Id); err == nil {
				slog.Info("user exists, skipping", "id", user.Id)
				continue
			}
		}
		if _, err := db.UserRepository().AddUsers(ctx, user); err != nil {
			return fmt.Errorf("add user %q: %w", user.Username, err)
		}
	}

	if _, err := db.PetRepository().AddPets(ctx, seed.Pets...); err != nil {
		return fmt.Errorf("add pets: %w", err)
	}

	for _, post := range seed.Posts {
		if post.Id != 0 {
			if _, err := db.PostRepository().GetPost(ctx, post.Id); err == nil {
				slog.Info("post exists, skipping", "id", post.Id)
				continue
			}
		}
		if _, err := db.PostRepository().AddPosts(ctx, post); err != nil {
			return fmt.Errorf("add post %d: %w", post.Id, err)
		}
	}
	return nil
}

func main() {
	flag.Parse()

	db, err := pawgraph.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ctx := context.Background()

	// Determine source of seed data
	seed := demoSeed(time.Now())
	if seedFileName != nil && *seedFileName != "" {
		seed, err = loadSeed(*seedFileName)
		if err != nil {
			slog.Error("error reading seed file", "file", *seedFileName, "err", err)
			os.Exit(1)
		}
	}

	start := time.Now()
	if err := apply(ctx, db, seed); err != nil {
		slog.Error("error seeding database", "err", err)
		os.Exit(1)
	}
	slog.Info("seeded database", "users", len(seed.Users), "pets", len(seed.Pets), "posts", len(seed.Posts), "elapsed", time.Since(start))
}
