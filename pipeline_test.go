package hefty_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	hefty "github.com/vinujohn/hefty-blob"
	"github.com/vinujohn/hefty-blob/blobstore"
	s3blob "github.com/vinujohn/hefty-blob/blobstore/s3"
	"github.com/vinujohn/hefty-blob/internal/testutils"
)

var _ = Describe("Payload pipeline", func() {
	const maxByteSize = 1_000_000

	var (
		ctx          context.Context
		store        *faultyStore
		cfg          hefty.Config
		serializer   *hefty.Serializer
		deserializer *hefty.Deserializer
		metrics      *hefty.BasicMetricsCollector
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newFaultyStore()
		metrics = &hefty.BasicMetricsCollector{}
		cfg = hefty.Config{MaxByteSize: maxByteSize, BasePath: "base", Backend: hefty.BackendMemory}

		var err error
		serializer, err = hefty.NewSerializerWithStore(cfg, store, hefty.WithMetrics(metrics))
		Expect(err).To(BeNil())
		deserializer, err = hefty.NewDeserializer(cfg, hefty.WithStore(store), hefty.WithMetrics(metrics))
		Expect(err).To(BeNil())
	})

	When("a 2,000,000 byte value is produced on topic orders", func() {
		var payload, wire []byte

		BeforeEach(func() {
			payload = testutils.CreatePayload(2_000_000)

			var err error
			wire, err = serializer.Serialize(ctx, "orders", 0, payload)
			Expect(err).To(BeNil())
		})

		It("sends a reference", func() {
			Expect(wire[0]).To(Equal(byte(0x01)))
			uri, ok := hefty.ReferenceURI(wire)
			Expect(ok).To(BeTrue())
			Expect(uri).To(HavePrefix("mem://test-bucket/base/orders/0/"))
		})

		It("resolves to the original bytes", func() {
			got, err := deserializer.Deserialize(ctx, "orders", wire)
			Expect(err).To(BeNil())
			Expect(got).To(HaveLen(2_000_000))
			Expect(bytes.Equal(got, payload)).To(BeTrue())
		})

		It("records the blob write and read", func() {
			_, err := deserializer.Deserialize(ctx, "orders", wire)
			Expect(err).To(BeNil())
			Expect(metrics.StoreCount.Load()).To(Equal(int64(1)))
			Expect(metrics.StoreBytes.Load()).To(Equal(int64(2_000_000)))
			Expect(metrics.RetrieveBytes.Load()).To(Equal(int64(2_000_000)))
		})

		It("fails with a not found error once the blob is deleted out of band", func() {
			uri, _ := hefty.ReferenceURI(wire)
			u, err := blobstore.ParseURI(uri)
			Expect(err).To(BeNil())
			_, err = store.MemoryStore.Delete(ctx, []string{u.Key})
			Expect(err).To(BeNil())

			got, err := deserializer.Deserialize(ctx, "orders", wire)
			Expect(got).To(BeNil())
			Expect(errors.Is(err, hefty.ErrNotFound)).To(BeTrue())
			var notFound *hefty.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(notFound.URI).To(Equal(uri))
		})
	})

	It("sends a 10 byte value inline as the flag followed by the original bytes", func() {
		payload := []byte("0123456789")

		wire, err := serializer.Serialize(ctx, "orders", 0, payload)
		Expect(err).To(BeNil())
		Expect(wire).To(Equal(append([]byte{0x00}, payload...)))
		Expect(store.Len()).To(Equal(0))

		got, err := deserializer.Deserialize(ctx, "orders", wire)
		Expect(err).To(BeNil())
		Expect(got).To(Equal(payload))
	})

	DescribeTable("applies the threshold with a strict comparison",
		func(size int, backed bool) {
			wire, err := serializer.Serialize(ctx, "orders", 1, bytes.Repeat([]byte{'x'}, size))
			Expect(err).To(BeNil())
			Expect(wire[0] == 0x01).To(Equal(backed))
		},
		Entry("empty", 0, false),
		Entry("below threshold", maxByteSize-1, false),
		Entry("at threshold", maxByteSize, false),
		Entry("above threshold", maxByteSize+1, true),
	)

	It("round trips payloads around the threshold", func() {
		for desc, payload := range testutils.BoundaryPayloads(maxByteSize) {
			wire, err := serializer.Serialize(ctx, "orders", 2, payload)
			Expect(err).To(BeNil(), desc)

			got, err := deserializer.Deserialize(ctx, "orders", wire)
			Expect(err).To(BeNil(), desc)
			Expect(bytes.Equal(got, payload)).To(BeTrue(), desc)
		}
	})

	It("round trips random payloads", func() {
		for i := 0; i < 20; i++ {
			payload := testutils.RandomPayload(maxByteSize-10, maxByteSize+10)
			wire, err := serializer.Serialize(ctx, "orders", int32(i), payload)
			Expect(err).To(BeNil())

			got, err := deserializer.Deserialize(ctx, "orders", wire)
			Expect(err).To(BeNil())
			Expect(bytes.Equal(got, payload)).To(BeTrue())
		}
	})

	It("passes tombstones through", func() {
		wire, err := serializer.Serialize(ctx, "orders", 0, nil)
		Expect(err).To(BeNil())
		Expect(wire).To(BeNil())

		got, err := deserializer.Deserialize(ctx, "orders", nil)
		Expect(err).To(BeNil())
		Expect(got).To(BeNil())
	})

	It("produces no bytes when the blob write fails", func() {
		store.setStoreErr(errors.New("connection reset"))

		wire, err := serializer.Serialize(ctx, "orders", 0, testutils.CreatePayload(maxByteSize+1))
		Expect(wire).To(BeNil())
		var storageErr *hefty.StorageError
		Expect(errors.As(err, &storageErr)).To(BeTrue())
		Expect(store.Len()).To(Equal(0))
		Expect(metrics.StoreErrors.Load()).To(Equal(int64(1)))
	})

	DescribeTable("rejects malformed records with a codec error",
		func(wire []byte) {
			got, err := deserializer.Deserialize(ctx, "orders", wire)
			Expect(got).To(BeNil())
			var codecErr *hefty.CodecError
			Expect(errors.As(err, &codecErr)).To(BeTrue())
		},
		Entry("truncated", []byte{}),
		Entry("unknown flag", []byte{0x07, 'a'}),
		Entry("invalid utf-8 reference", []byte{0x01, 0xff, 0xfe}),
		Entry("reference without scheme", append([]byte{0x01}, "bucket/key"...)),
		Entry("reference without key", append([]byte{0x01}, "mem://test-bucket/"...)),
	)

	DescribeTable("reports a configuration error for a scheme it cannot read",
		func(uri string) {
			_, err := deserializer.Deserialize(ctx, "orders", append([]byte{0x01}, uri...))
			var cfgErr *hefty.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
		},
		Entry("unknown scheme", "ftp://other/orders/0/abc"),
		Entry("azure without an account", "abs://other/orders/0/abc"),
	)

	Context("reading references written to another backend", func() {
		// static credentials and an unreachable endpoint keep the S3 client off the network
		// and away from the default credential chain
		unreachableS3 := s3blob.Config{
			Region:    "us-west-2",
			Endpoint:  "http://127.0.0.1:1",
			PathStyle: true,
			AccessKey: "access",
			SecretKey: "secret",
		}

		It("accepts an S3 config without a bucket", func() {
			_, err := hefty.NewDeserializer(hefty.Config{Backend: hefty.BackendS3})
			Expect(err).To(BeNil())
		})

		It("still requires the bucket to write", func() {
			_, err := hefty.NewSerializer(ctx, hefty.Config{Backend: hefty.BackendS3})
			var cfgErr *hefty.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Field).To(Equal("s3"))
		})

		DescribeTable("opens an S3 store with the bucket of the reference",
			func(backend hefty.Backend) {
				readCfg := hefty.Config{
					Backend: backend,
					S3:      unreachableS3,
					Retry:   blobstore.RetryPolicy{MaxAttempts: 1, Timeout: 5 * time.Second},
				}
				d, err := hefty.NewDeserializer(readCfg)
				Expect(err).To(BeNil())

				_, err = d.Deserialize(ctx, "orders", append([]byte{0x01}, "s3://producer-bucket/base/orders/0/abc"...))
				Expect(err).NotTo(BeNil())

				var cfgErr *hefty.ConfigurationError
				Expect(errors.As(err, &cfgErr)).To(BeFalse())
				var storageErr *hefty.StorageError
				Expect(errors.As(err, &storageErr)).To(BeTrue())
				Expect(storageErr.Location).To(Equal("s3://producer-bucket/base/orders/0/abc"))
			},
			Entry("gcs configured", hefty.BackendGCS),
			Entry("memory configured", hefty.BackendMemory),
			Entry("s3 configured without a bucket", hefty.BackendS3),
		)
	})

	It("keeps independently configured pipelines apart", func() {
		other, err := hefty.NewSerializerWithStore(hefty.Config{MaxByteSize: 4, BasePath: "other"}, store)
		Expect(err).To(BeNil())

		wire, err := other.Serialize(ctx, "orders", 0, []byte("12345"))
		Expect(err).To(BeNil())
		Expect(wire[0]).To(Equal(byte(0x01)))

		wire, err = serializer.Serialize(ctx, "orders", 0, []byte("12345"))
		Expect(err).To(BeNil())
		Expect(wire[0]).To(Equal(byte(0x00)))
	})

	Context("through the two function serde", func() {
		It("uses the partitioner for the key", func() {
			serde, err := hefty.NewSerde(ctx, cfg,
				hefty.WithStore(store),
				hefty.WithPartitioner(func(string, []byte) int32 { return 7 }))
			Expect(err).To(BeNil())

			payload := testutils.CreatePayload(maxByteSize + 1)
			wire, err := serde.Serialize("orders", payload)
			Expect(err).To(BeNil())
			uri, ok := hefty.ReferenceURI(wire)
			Expect(ok).To(BeTrue())
			Expect(uri).To(ContainSubstring("/base/orders/7/"))

			got, err := serde.Deserialize("orders", wire)
			Expect(err).To(BeNil())
			Expect(bytes.Equal(got, payload)).To(BeTrue())
		})

		It("writes to the unassigned partition by default", func() {
			serde, err := hefty.NewSerde(ctx, cfg, hefty.WithStore(store))
			Expect(err).To(BeNil())

			wire, err := serde.Serialize("orders", testutils.CreatePayload(maxByteSize+1))
			Expect(err).To(BeNil())
			uri, _ := hefty.ReferenceURI(wire)
			Expect(uri).To(ContainSubstring("/base/orders/unassigned/"))
		})

		It("shares a store built from the config between both directions", func() {
			serde, err := hefty.NewSerde(ctx, hefty.Config{MaxByteSize: 8, Backend: hefty.BackendMemory})
			Expect(err).To(BeNil())

			wire, err := serde.Serialize("orders", []byte("more than eight bytes"))
			Expect(err).To(BeNil())
			got, err := serde.Deserialize("orders", wire)
			Expect(err).To(BeNil())
			Expect(string(got)).To(Equal("more than eight bytes"))
		})
	})

	Context("through the connector converter", func() {
		It("round trips values of the inner converter", func() {
			serde, err := hefty.NewSerde(ctx, cfg, hefty.WithStore(store))
			Expect(err).To(BeNil())
			converter := hefty.NewConverter(hefty.ByteArrayConverter{}, serde)

			value := strings.Repeat("v", maxByteSize+10)
			wire, err := converter.FromConnectData("orders", value)
			Expect(err).To(BeNil())
			Expect(wire[0]).To(Equal(byte(0x01)))

			got, err := converter.ToConnectData("orders", wire)
			Expect(err).To(BeNil())
			Expect(got).To(Equal([]byte(value)))

			_, err = converter.FromConnectData("orders", 42)
			Expect(err).NotTo(BeNil())
		})
	})
})
