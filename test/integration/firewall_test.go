//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/adapter"
	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/dispatch"
	"github.com/eliteGoblin/privguard/internal/domain"
	"github.com/eliteGoblin/privguard/internal/infra"
	"github.com/eliteGoblin/privguard/test/fixtures"
)

var _ = Describe("Firewall and hosts", func() {
	var (
		tmpDir   string
		shell    *fixtures.FakeShell
		firewall *adapter.FirewallAdapter
		coord    *dispatch.Coordinator
		ctx      context.Context
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "privguard-integration-*")
		Expect(err).NotTo(HaveOccurred())

		shell = fixtures.NewFakeShell()
		firewall = adapter.NewFirewallAdapter(shell, zap.NewNop())
		coord = dispatch.New(dispatch.Config{Workers: 2, QueueSize: 4}, zap.NewNop())
		ctx = context.Background()
	})

	AfterEach(func() {
		coord.Stop()
		os.RemoveAll(tmpDir)
	})

	Describe("blocking through the coordinator", func() {
		It("should add one rule per endpoint and report every item blocked", func() {
			items, err := firewall.Scan(ctx)
			Expect(err).NotTo(HaveOccurred())
			for _, item := range items {
				Expect(item.CurrentlyBlocked).To(BeFalse())
			}

			f, err := dispatch.ApplyAsync(coord, firewall, items, domain.Blocked)
			Expect(err).NotTo(HaveOccurred())

			var updates int
			for range f.Progress() {
				updates++
			}
			result, err := f.Wait(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.OK()).To(BeTrue())
			Expect(result.SuccessCount).To(Equal(len(items)))
			Expect(updates).To(BeNumerically("<=", len(items)))
			Expect(shell.RuleCount()).To(Equal(len(firewall.Endpoints())))

			items, err = firewall.Scan(ctx)
			Expect(err).NotTo(HaveOccurred())
			for _, item := range items {
				Expect(item.CurrentlyBlocked).To(BeTrue(), item.ID)
			}
		})

		It("should be idempotent in both directions", func() {
			Expect(firewall.BlockAll(ctx, nil).OK()).To(BeTrue())
			Expect(firewall.BlockAll(ctx, nil).OK()).To(BeTrue())
			Expect(shell.RuleCount()).To(Equal(len(firewall.Endpoints())))
			Expect(firewall.UnblockAll(ctx, nil).OK()).To(BeTrue())
			Expect(firewall.UnblockAll(ctx, nil).OK()).To(BeTrue())
			Expect(shell.RuleCount()).To(BeZero())
		})
	})

	Describe("categories", func() {
		It("should only block the endpoints of one category", func() {
			category := firewall.Categories()[0]
			want := catalog.EndpointsInCategory(firewall.Endpoints(), category)

			result := firewall.BlockCategory(ctx, category, nil)
			Expect(result.SuccessCount).To(Equal(len(want)))
			Expect(shell.RuleCount()).To(Equal(len(want)))
		})
	})

	Describe("ExportRules", func() {
		It("should pass the target path to netsh", func() {
			path := filepath.Join(tmpDir, "policy.wfw")
			Expect(firewall.ExportRules(ctx, path)).To(Succeed())
			Expect(shell.Exported()).To(ConsistOf(path))
		})
	})

	Describe("hosts block", func() {
		var (
			hostsPath string
			hosts     *adapter.HostsBlock
		)

		const original = "127.0.0.1 localhost\r\n::1 localhost\r\n"

		BeforeEach(func() {
			hostsPath = filepath.Join(tmpDir, "hosts")
			Expect(os.WriteFile(hostsPath, []byte(original), 0644)).To(Succeed())
			hosts = adapter.NewHostsBlock(infra.NewFileSystemManager(zap.NewNop()), hostsPath, zap.NewNop())
		})

		It("should add and remove the block without touching other lines", func() {
			Expect(hosts.Apply(firewall.Endpoints())).To(Succeed())

			applied, err := hosts.IsApplied()
			Expect(err).NotTo(HaveOccurred())
			Expect(applied).To(BeTrue())

			data, err := os.ReadFile(hostsPath)
			Expect(err).NotTo(HaveOccurred())
			content := string(data)
			Expect(content).To(HavePrefix(original))
			Expect(strings.Count(content, catalog.HostsMarkerStart)).To(Equal(1))
			for _, ep := range firewall.Endpoints() {
				Expect(content).To(ContainSubstring("0.0.0.0 " + ep.Domain + "\r\n"))
			}

			Expect(hosts.Apply(firewall.Endpoints())).To(Succeed())
			again, err := os.ReadFile(hostsPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(again)).To(Equal(content))

			Expect(hosts.Remove()).To(Succeed())
			data, err = os.ReadFile(hostsPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(original))
		})
	})
})
