//go:build integration

package integration

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/adapter"
	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/domain"
	"github.com/eliteGoblin/privguard/internal/infra"
	"github.com/eliteGoblin/privguard/test/fixtures"
)

var _ = Describe("Cleanup", func() {
	var (
		tree    *fixtures.FakeUserTree
		store   *fixtures.MemConfigStore
		cleanup *adapter.CleanupAdapter
		ctx     context.Context
	)

	BeforeEach(func() {
		tmpDir, err := os.MkdirTemp("", "privguard-integration-*")
		Expect(err).NotTo(HaveOccurred())

		tree = fixtures.NewFakeUserTree(tmpDir)
		Expect(tree.Create()).To(Succeed())

		store = fixtures.NewMemConfigStore()
		fs := infra.NewFileSystemManager(zap.NewNop())
		cleanup = adapter.NewCleanupAdapter(fs, store, tree.Env(), zap.NewNop())
		ctx = context.Background()
	})

	AfterEach(func() {
		tree.Cleanup()
	})

	Describe("TotalSize", func() {
		It("should count every cleanable file", func() {
			Expect(cleanup.TotalSize(ctx)).To(Equal(tree.TotalBytes() - tree.PreservedBytes()))
		})
	})

	Describe("CleanAll", func() {
		Context("when the tree and the registry hold tracking data", func() {
			BeforeEach(func() {
				runMRU := `SOFTWARE\Microsoft\Windows\CurrentVersion\Explorer\RunMRU`
				Expect(store.SetString(domain.HiveCurrentUser, runMRU, "a", `cmd\1`)).To(Succeed())
				Expect(store.SetString(domain.HiveCurrentUser, runMRU, "MRUList", "a")).To(Succeed())
				Expect(store.SetString(domain.HiveCurrentUser, catalog.AdvertisingInfoPath, catalog.AdvertisingIDValue, "OLD")).To(Succeed())
			})

			It("should remove the files and report the bytes cleaned", func() {
				report := cleanup.CleanAll(ctx, nil)

				Expect(report.Result.FailureCount).To(BeZero())
				Expect(report.BytesCleaned).To(Equal(tree.TotalBytes() - tree.PreservedBytes()))
				Expect(report.Message).To(HavePrefix("Cleaned "))
				Expect(cleanup.TotalSize(ctx)).To(BeZero())

				Expect(tree.Exists("AppData/Local/Temp/a.tmp")).To(BeFalse())
				Expect(tree.Exists("AppData/Local/Temp")).To(BeTrue())
				Expect(tree.Exists("AppData/Local/ConnectedDevicesPlatform/CDPGlobalSettings.cdp")).To(BeTrue())
			})

			It("should clear registry history but keep the MRU index", func() {
				cleanup.CleanAll(ctx, nil)

				runMRU := `SOFTWARE\Microsoft\Windows\CurrentVersion\Explorer\RunMRU`
				names, err := store.ValueNames(domain.HiveCurrentUser, runMRU)
				Expect(err).NotTo(HaveOccurred())
				Expect(names).To(ConsistOf("MRUList"))
			})

			It("should replace the advertising ID and turn the activity feed off", func() {
				cleanup.CleanAll(ctx, nil)

				id, err := store.GetString(domain.HiveCurrentUser, catalog.AdvertisingInfoPath, catalog.AdvertisingIDValue)
				Expect(err).NotTo(HaveOccurred())
				Expect(id).NotTo(Equal("OLD"))
				Expect(id).To(MatchRegexp(`^[0-9A-F]{8}-[0-9A-F]{4}-4[0-9A-F]{3}-[89AB][0-9A-F]{3}-[0-9A-F]{12}$`))

				for _, name := range catalog.ActivityPolicyValues {
					v, err := store.GetDWORD(domain.HiveLocalMachine, catalog.SystemPolicyPath, name)
					Expect(err).NotTo(HaveOccurred())
					Expect(v).To(BeZero())
				}
			})

			It("should report every target clean on the next scan", func() {
				cleanup.CleanAll(ctx, nil)

				items, err := cleanup.Scan(ctx)
				Expect(err).NotTo(HaveOccurred())
				for _, item := range items {
					Expect(item.CurrentlyBlocked).To(BeTrue(), item.ID)
				}
			})
		})
	})

	Describe("CleanCategory", func() {
		It("should only touch targets of that category", func() {
			report := cleanup.CleanCategory(ctx, catalog.CategoryActivityHistory, nil)

			Expect(report.Result.FailureCount).To(BeZero())
			Expect(report.BytesCleaned).To(Equal(int64(512 + 4096 + 128)))
			Expect(tree.Exists("AppData/Local/IconCache.db")).To(BeTrue())
			Expect(tree.Exists("AppData/Local/Temp/a.tmp")).To(BeTrue())
			Expect(tree.Exists("Windows/Prefetch/NOTEPAD.EXE-D8414F97.pf")).To(BeTrue())
		})
	})
})
