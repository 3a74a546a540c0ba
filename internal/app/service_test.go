package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/lunalira/transit/internal/app"
	"github.com/lunalira/transit/internal/adapters/repository"
	"github.com/lunalira/transit/internal/domain/model"
	"github.com/lunalira/transit/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(500),
			service.WithDefaultMinScore(0),
			service.WithTimezone("UTC"),
			service.WithTradingDaysOnly(true),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given a service with a bogus timezone", t, func() {
		svc := service.New(service.WithTimezone("Mars/Olympus_Mons"))
		defer svc.Stop()

		Convey("When starting the service", func() {
			err := svc.Start(context.Background())

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})

			Convey("And stopping again should be safe", func() {
				svc.Stop()
			})
		})
	})
}

func TestService_SubmitRunValidation(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("When submitting a run", func() {
			_, err := svc.SubmitRun(context.Background(), service.RunRequest{
				Listings: []model.Listing{{Symbol: "ACME", Date: time.Now()}},
				Start:    time.Now(),
				End:      time.Now(),
			})

			Convey("Then it should report the service as not started", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})

	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		defer svc.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

		Convey("When submitting with no symbols", func() {
			_, err := svc.SubmitRun(ctx, service.RunRequest{Start: day, End: day})

			Convey("Then the request is rejected", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			})
		})

		Convey("When submitting without a date range", func() {
			_, err := svc.SubmitRun(ctx, service.RunRequest{
				Listings: []model.Listing{{Symbol: "ACME", Date: day}},
			})

			Convey("Then the request is rejected", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			})
		})

		Convey("When submitting an empty symbol", func() {
			_, err := svc.SubmitRun(ctx, service.RunRequest{
				Listings: []model.Listing{{Symbol: "", Date: day}},
				Start:    day,
				End:      day,
			})

			Convey("Then the request is rejected", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			})
		})

		Convey("When every listing is missing its date", func() {
			id, err := svc.SubmitRun(ctx, service.RunRequest{
				Listings: []model.Listing{{Symbol: "ACME"}, {Symbol: "BETA"}},
				Start:    day,
				End:      day,
			})

			Convey("Then the run completes immediately with diagnostics", func() {
				So(err, ShouldBeNil)
				run, err := svc.GetRun(ctx, id)
				So(err, ShouldBeNil)
				So(run.Status, ShouldEqual, repository.RunStatusComplete)
				So(run.Diagnostics, ShouldHaveLength, 2)
				So(run.Events, ShouldBeEmpty)
			})
		})
	})
}

func TestService_GetRunUnknown(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		defer svc.Stop()
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When fetching an unknown run id", func() {
			_, err := svc.GetRun(ctx, "no-such-run")

			Convey("Then it should not be found", func() {
				So(errors.Is(err, repository.ErrRunNotFound), ShouldBeTrue)
			})
		})
	})
}
