package trace_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/trace"
)

var _ = Describe("Trace", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	writeFile := func(name, contents string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(contents), 0644)).To(Succeed())
		return path
	}

	Describe("Load", func() {
		It("parses PrRead/PrWrite/Other lines", func() {
			path := writeFile("app_0.data", "0 0\n1 200\n2 3\n")
			stream, err := trace.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(stream).To(Equal([]trace.Instruction{
				{Op: trace.OpRead, Value: 0},
				{Op: trace.OpWrite, Value: 0x200},
				{Op: trace.OpOther, Value: 3},
			}))
		})

		It("skips blank lines", func() {
			path := writeFile("app_0.data", "0 0\n\n1 10\n")
			stream, err := trace.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(stream).To(HaveLen(2))
		})

		It("rejects an out-of-range opcode", func() {
			path := writeFile("bad.data", "3 0\n")
			_, err := trace.Load(path)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("out of range"))
		})

		It("rejects a malformed line", func() {
			path := writeFile("bad.data", "0\n")
			_, err := trace.Load(path)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a missing file", func() {
			_, err := trace.Load(filepath.Join(dir, "missing.data"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Discover", func() {
		It("sorts matching files lexicographically", func() {
			writeFile("app_1.data", "2 1\n")
			writeFile("app_0.data", "2 1\n")
			writeFile("app_10.data", "2 1\n")

			paths, err := trace.Discover(filepath.Join(dir, "app_*.data"))
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(Equal([]string{
				filepath.Join(dir, "app_0.data"),
				filepath.Join(dir, "app_1.data"),
				filepath.Join(dir, "app_10.data"),
			}))
		})

		It("errors when nothing matches", func() {
			_, err := trace.Discover(filepath.Join(dir, "nope_*.data"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("LoadAll", func() {
		It("loads every discovered file into its own stream", func() {
			p0 := writeFile("c0.data", "0 0\n")
			p1 := writeFile("c1.data", "1 4\n2 5\n")

			streams, err := trace.LoadAll([]string{p0, p1})
			Expect(err).NotTo(HaveOccurred())
			Expect(streams).To(HaveLen(2))
			Expect(streams[0]).To(HaveLen(1))
			Expect(streams[1]).To(HaveLen(2))
		})
	})
})
