package expense

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var storage *LocalStorage

	BeforeEach(func() {
		var err error
		storage, err = NewLocalStorage(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
	})

	It("stores and retrieves a document", func() {
		name, err := storage.Save("factura.pdf", []byte("pdf bytes"))
		Expect(err).NotTo(HaveOccurred())

		data, err := storage.Get(name)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("pdf bytes")))
	})

	It("derives a fresh sanitized name per save", func() {
		first, err := storage.Save("mi factura (marzo).pdf", []byte("a"))
		Expect(err).NotTo(HaveOccurred())
		second, err := storage.Save("mi factura (marzo).pdf", []byte("b"))
		Expect(err).NotTo(HaveOccurred())

		Expect(first).NotTo(Equal(second))
		Expect(first).NotTo(ContainSubstring("("))
		Expect(first).To(HaveSuffix(".pdf"))
	})

	It("deletes a stored document", func() {
		name, err := storage.Save("factura.pdf", []byte("pdf bytes"))
		Expect(err).NotTo(HaveOccurred())

		Expect(storage.Delete(name)).To(Succeed())
		_, err = storage.Get(name)
		Expect(err).To(HaveOccurred())
	})

	It("rejects names that escape the storage directory", func() {
		_, err := storage.Get("../outside.txt")
		Expect(err).To(HaveOccurred())
		Expect(storage.Delete("sub/dir.txt")).NotTo(Succeed())
	})
})
