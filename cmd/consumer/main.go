package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/thebinarypenguin/scribblez-go/internal/events"
	"github.com/thebinarypenguin/scribblez-go/internal/kafka"
	"github.com/thebinarypenguin/scribblez-go/pkg/redisclient"
)

// The consumer follows group.activity and keeps the Redis member cache in
// step with membership changes, so the server's grant expansion reads warm
// member lists.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	groupCache := redisclient.NewGroupCache(client)

	bootstrapServers := os.Getenv("KAFKA_BOOTSTRAP_SERVERS")
	if bootstrapServers == "" {
		bootstrapServers = "localhost:9092"
	}

	consumer, err := kafka.NewConsumer(bootstrapServers, "cache-updater", events.GroupActivityTopic)
	if err != nil {
		log.Fatalf("Failed to create Kafka consumer: %v", err)
	}

	cacheInvalidator := newCacheInvalidator(groupCache)

	consumer.RegisterHandler(events.GroupDeleted, cacheInvalidator.handle)
	consumer.RegisterHandler(events.MemberAdded, cacheInvalidator.handle)
	consumer.RegisterHandler(events.MemberRemoved, cacheInvalidator.handle)

	fmt.Println("Starting to consume group events...")
	consumer.Start()
}
