// Command dbinspect opens the bot's database read-only and prints a
// summary of what it holds. Useful when the bot is misbehaving and you
// want to see the stored state without attaching a debugger.
package main

import (
	"errors"
	"fmt"
	json "github.com/go-json-experiment/json"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/membertagger/member-tagger/internal/domain"
)

func main() {
	dbPath := os.Getenv("DATA_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/member-tagger/data")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	userCount := 0
	taggedUsers := 0
	totalTags := 0
	totalTasks := 0
	notificationsOff := 0
	malformed := 0

	err = db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte("users:")
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(iterOpts.Prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var user domain.User
				if err := json.Unmarshal(val, &user); err != nil {
					malformed++
					return nil
				}
				userCount++

				tags := 0
				for _, threads := range user.Tags {
					tags += len(threads)
				}
				if tags > 0 {
					taggedUsers++
				}
				totalTags += tags
				totalTasks += len(user.Tasks)
				if !user.NotificationEnabled {
					notificationsOff++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Inspection failed: %v", err)
	}

	var channels map[string]string
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("notify:channels"))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &channels)
		})
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		log.Fatalf("Inspection failed: %v", err)
	}

	fmt.Printf("Users:              %d\n", userCount)
	fmt.Printf("  with tags:        %d\n", taggedUsers)
	fmt.Printf("  notifications off: %d\n", notificationsOff)
	fmt.Printf("Thread tags:        %d\n", totalTags)
	fmt.Printf("Tasks:              %d\n", totalTasks)
	fmt.Printf("Notify channels:    %d\n", len(channels))
	if malformed > 0 {
		fmt.Printf("Malformed records:  %d\n", malformed)
	}

	for guildID, channelID := range channels {
		fmt.Printf("  guild %s -> channel %s\n", guildID, channelID)
	}
}
