package pushcmder

import (
	"bytes"
	"context"
	"net"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/llm"
	"github.com/papercomputeco/lens/pkg/merkle"
	"github.com/papercomputeco/lens/proxy"
)

var _ = Describe("Push Command", func() {
	var (
		ctx       context.Context
		localPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		localPath = filepath.Join(GinkgoT().TempDir(), "local.db")
	})

	makeNode := func(role llm.Role, text string, parent *merkle.Node) *merkle.Node {
		return merkle.NewNode(merkle.NewMessageBucket("test-model", llm.NewMessage(role, llm.NewTextBlock(text))), parent)
	}

	seed := func(nodes ...*merkle.Node) {
		local, err := merkle.NewSQLiteStorer(localPath)
		Expect(err).NotTo(HaveOccurred())
		defer local.Close()
		for _, n := range nodes {
			_, err := local.Put(ctx, n)
			Expect(err).NotTo(HaveOccurred())
		}
	}

	startServer := func() (string, *merkle.MemoryStorer) {
		serverStorer := merkle.NewMemoryStorer()

		srv, err := proxy.New(proxy.Config{ListenAddr: ":0"}, zap.NewNop(), proxy.WithStorer(serverStorer))
		Expect(err).NotTo(HaveOccurred())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		go func() {
			_ = srv.RunWithListener(listener)
		}()
		DeferCleanup(srv.Close)

		return "http://" + listener.Addr().String(), serverStorer
	}

	push := func(args ...string) string {
		var out bytes.Buffer
		cmd := NewPushCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())
		return out.String()
	}

	It("pushes local nodes to a remote server", func() {
		nodeA := makeNode(llm.RoleUser, "hello from push test", nil)
		seed(nodeA, makeNode(llm.RoleAssistant, "hi back from push test", nodeA))
		addr, serverStorer := startServer()

		out := push("--sqlite", localPath, addr)
		Expect(out).To(ContainSubstring("Pushed 2 new nodes (0 already existed, 0 rejected)"))

		nodes, err := serverStorer.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(2))
	})

	It("deduplicates on double push", func() {
		seed(makeNode(llm.RoleUser, "dedup push test", nil))
		addr, serverStorer := startServer()

		push("--sqlite", localPath, addr)
		out := push("--sqlite", localPath, addr+"/")
		Expect(out).To(ContainSubstring("Pushed 0 new nodes (1 already existed"))

		nodes, err := serverStorer.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(1))
	})

	It("sends large ledgers in batches", func() {
		var nodes []*merkle.Node
		var parent *merkle.Node
		for _, text := range []string{"one", "two", "three", "four", "five"} {
			parent = makeNode(llm.RoleUser, text, parent)
			nodes = append(nodes, parent)
		}
		seed(nodes...)
		addr, serverStorer := startServer()

		push("--sqlite", localPath, "--batch-size", "2", addr)

		stored, err := serverStorer.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(HaveLen(5))
	})

	It("reports an empty ledger", func() {
		seed()
		Expect(push("--sqlite", localPath, "http://127.0.0.1:1")).To(Equal("No local nodes to push.\n"))
	})
})
