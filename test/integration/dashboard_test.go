//go:build integration

package integration

import (
	"context"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/adapter"
	"github.com/eliteGoblin/privguard/internal/domain"
	"github.com/eliteGoblin/privguard/internal/infra"
	"github.com/eliteGoblin/privguard/internal/usecase"
	"github.com/eliteGoblin/privguard/test/fixtures"
)

var _ = Describe("Dashboard and profiles", func() {
	var (
		tmpDir      string
		tree        *fixtures.FakeUserTree
		store       *fixtures.MemConfigStore
		shell       *fixtures.FakeShell
		telemetry   *adapter.TelemetryAdapter
		permissions *adapter.PermissionsAdapter
		firewall    *adapter.FirewallAdapter
		cleanup     *adapter.CleanupAdapter
		history     *usecase.ScoreHistory
		dashboard   *usecase.Dashboard
		ctx         context.Context
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "privguard-integration-*")
		Expect(err).NotTo(HaveOccurred())

		tree = fixtures.NewFakeUserTree(tmpDir + "/home")
		Expect(tree.Create()).To(Succeed())

		logger := zap.NewNop()
		store = fixtures.NewMemConfigStore()
		shell = fixtures.NewFakeShell()
		fs := infra.NewFileSystemManager(logger)

		telemetry = adapter.NewTelemetryAdapter(store, fixtures.NewFakeServices(), shell, logger)
		permissions = adapter.NewPermissionsAdapter(store, logger)
		firewall = adapter.NewFirewallAdapter(shell, logger)
		cleanup = adapter.NewCleanupAdapter(fs, store, tree.Env(), logger)

		history = usecase.NewScoreHistory(infra.NewFileHistoryStore(tmpDir), logger)
		dashboard = usecase.NewDashboard(telemetry, permissions, firewall, cleanup, history, logger)
		ctx = context.Background()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Refresh", func() {
		It("should score a fresh machine low and record one entry", func() {
			snap, err := dashboard.Refresh(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Telemetry.Score).To(BeZero())
			Expect(snap.Firewall.Score).To(BeZero())
			Expect(snap.CleanableBytes).To(Equal(tree.TotalBytes() - tree.PreservedBytes()))
			Expect(history.All()).To(HaveLen(1))
		})

		It("should raise the scores after hardening and keep one entry per day", func() {
			before, err := dashboard.Refresh(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(telemetry.BlockAll(ctx, nil).OK()).To(BeTrue())
			Expect(firewall.BlockAll(ctx, nil).OK()).To(BeTrue())
			Expect(permissions.DisableAll(ctx, nil).OK()).To(BeTrue())

			after, err := dashboard.Refresh(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(after.Telemetry.Score).To(Equal(100))
			Expect(after.Firewall.Score).To(Equal(100))
			Expect(after.Permissions.Score).To(Equal(100))
			Expect(after.Overall).To(BeNumerically(">", before.Overall))
			Expect(history.All()).To(HaveLen(1))

			latest, ok := history.Latest()
			Expect(ok).To(BeTrue())
			Expect(latest.OverallScore).To(Equal(after.Overall))
			Expect(latest.Date).To(Equal(time.Now().Format(domain.HistoryDateLayout)))
		})

		It("should reload the recorded history from disk", func() {
			_, err := dashboard.Refresh(ctx)
			Expect(err).NotTo(HaveOccurred())

			reloaded := usecase.NewScoreHistory(infra.NewFileHistoryStore(tmpDir), zap.NewNop())
			Expect(reloaded.All()).To(Equal(history.All()))
		})
	})

	Describe("profiles", func() {
		var (
			manager  *usecase.ProfileManager
			profiles *infra.EncryptedProfileStore
		)

		BeforeEach(func() {
			var err error
			profiles, err = infra.OpenProfileStore(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			manager = usecase.NewProfileManager(
				[]domain.Adapter{telemetry, permissions, firewall},
				infra.NewAutostartManager(store, zap.NewNop()),
				`C:\Program Files\privguard\privguard.exe`,
				profiles,
				zap.NewNop())
		})

		AfterEach(func() {
			profiles.Close()
		})

		It("should restore a saved hardened state", func() {
			Expect(firewall.BlockAll(ctx, nil).OK()).To(BeTrue())
			_, err := manager.Save(ctx, "hardened")
			Expect(err).NotTo(HaveOccurred())

			Expect(firewall.UnblockAll(ctx, nil).OK()).To(BeTrue())
			Expect(shell.RuleCount()).To(BeZero())

			p, err := manager.Load("hardened")
			Expect(err).NotTo(HaveOccurred())
			result, err := manager.Apply(ctx, p, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.OK()).To(BeTrue())
			Expect(shell.RuleCount()).To(Equal(len(firewall.Endpoints())))

			saved, err := manager.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(saved).To(HaveLen(1))
			Expect(saved[0].Name).To(Equal("hardened"))
		})

		It("should survive a file export and import", func() {
			Expect(telemetry.BlockAll(ctx, nil).OK()).To(BeTrue())
			p, err := manager.Capture(ctx)
			Expect(err).NotTo(HaveOccurred())

			data, err := usecase.EncodeProfile(p)
			Expect(err).NotTo(HaveOccurred())
			decoded, err := usecase.DecodeProfile(data)
			Expect(err).NotTo(HaveOccurred())

			ids, ok := usecase.BlockedIDs(decoded, domain.DomainTelemetry)
			Expect(ok).To(BeTrue())
			Expect(ids).To(HaveLen(len(telemetry.Items())))
		})

		It("should reject deleting an unknown profile", func() {
			err := manager.Delete("missing")
			Expect(err).To(MatchError(domain.ErrNotFound))
		})
	})
})
