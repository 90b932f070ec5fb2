package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/campreserve/enrollment-scheduler/internal/cache"
	"github.com/campreserve/enrollment-scheduler/internal/config"
	"github.com/campreserve/enrollment-scheduler/internal/database"
	"github.com/campreserve/enrollment-scheduler/internal/handler"
	"github.com/campreserve/enrollment-scheduler/internal/queue"
	"github.com/campreserve/enrollment-scheduler/internal/repository"
	"github.com/campreserve/enrollment-scheduler/internal/router"
	"github.com/campreserve/enrollment-scheduler/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Migrate(db, "migrations"); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	var store cache.Store
	if client := config.NewRedisClient(); client != nil {
		store = cache.NewRedis(client)
	} else {
		log.Println("redis unavailable; using in-memory counter cache")
		store = cache.NewMemory()
	}

	users := repository.NewUserRepo(db)
	factions := repository.NewFactionEnrollmentRepo(db)
	attendees := repository.NewAttendeeEnrollmentRepo(db)
	leaders := repository.NewLeaderEnrollmentRepo(db)
	faculty := repository.NewFacultyEnrollmentRepo(db)
	offerings := repository.NewClassOfferingRepo(db)
	attendeeClasses := repository.NewAttendeeClassEnrollmentRepo(db)
	facultyClasses := repository.NewFacultyClassEnrollmentRepo(db)
	quarters := repository.NewQuartersRepo(db)
	weeks := repository.NewWeekRepo(db)
	availability := repository.NewAvailabilityRepo(db)

	usage := service.NewUsageCalculator(attendees, leaders, store, cfg.UsageTTL)
	guard := service.NewCapacityGuard(availability, faculty, usage)
	sync := service.NewReservationSync(availability, quarters, offerings)

	svc := &service.SchedulingService{
		DB:              db,
		Factions:        factions,
		Attendees:       attendees,
		Leaders:         leaders,
		Faculty:         faculty,
		Offerings:       offerings,
		AttendeeClasses: attendeeClasses,
		FacultyClasses:  facultyClasses,
		Quarters:        quarters,
		Weeks:           weeks,
		Availability:    availability,
		Guard:           guard,
		Sync:            sync,
		Usage:           usage,
		Cache:           store,
		CacheTTL:        cfg.UsageTTL,
		Audit:           &queue.Publisher{},
	}

	// Audit trail consumer; reconnects on its own, never blocks startup.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit-consumer: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret)
	router.RegisterScheduling(e, handler.NewSchedulingHandler(svc), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
