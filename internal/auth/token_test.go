package auth_test

import (
	"time"

	"github.com/frahmantamala/feedback-management/internal"
	"github.com/frahmantamala/feedback-management/internal/auth"
	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("JWTTokenGenerator", func() {
	var gen *auth.JWTTokenGenerator

	BeforeEach(func() {
		gen = auth.NewJWTTokenGenerator(testAccessSecret, testRefreshSecret, 15*time.Minute, time.Hour)
	})

	It("should round trip an access token", func() {
		token, err := gen.GenerateAccessToken(42, "alice")
		Expect(err).NotTo(HaveOccurred())

		claims, err := gen.ValidateAccessToken(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.UserID).To(Equal(int64(42)))
		Expect(claims.Username).To(Equal("alice"))
		Expect(claims.TokenType).To(Equal(auth.TokenTypeAccess))
		Expect(claims.Subject).To(Equal("42"))
		Expect(claims.ID).NotTo(BeEmpty())
	})

	It("should issue distinct ids for every token", func() {
		a, _ := gen.GenerateAccessToken(1, "alice")
		b, _ := gen.GenerateAccessToken(1, "alice")
		Expect(a).NotTo(Equal(b))
	})

	It("should keep access and refresh tokens apart", func() {
		access, _ := gen.GenerateAccessToken(1, "alice")
		refresh, _ := gen.GenerateRefreshToken(1, "alice")

		_, err := gen.ValidateRefreshToken(access)
		Expect(err).To(Equal(internal.ErrInvalidToken))
		_, err = gen.ValidateAccessToken(refresh)
		Expect(err).To(Equal(internal.ErrInvalidToken))
	})

	It("should report expiry separately", func() {
		expired := auth.NewJWTTokenGenerator(testAccessSecret, testRefreshSecret, -time.Minute, time.Hour)
		token, err := expired.GenerateAccessToken(1, "alice")
		Expect(err).NotTo(HaveOccurred())

		_, err = gen.ValidateAccessToken(token)
		Expect(err).To(Equal(internal.ErrTokenExpired))
	})

	It("should reject tokens signed with another secret", func() {
		other := auth.NewJWTTokenGenerator("another-access-secret-another-access", testRefreshSecret, time.Minute, time.Hour)
		token, _ := other.GenerateAccessToken(1, "alice")

		_, err := gen.ValidateAccessToken(token)
		Expect(err).To(Equal(internal.ErrInvalidToken))
	})

	It("should reject unsigned tokens", func() {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"user_id":    1,
			"token_type": auth.TokenTypeAccess,
			"iss":        "feedback-management",
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		Expect(err).NotTo(HaveOccurred())

		_, err = gen.ValidateAccessToken(signed)
		Expect(err).To(Equal(internal.ErrInvalidToken))
	})

	It("should reject garbage", func() {
		_, err := gen.ValidateAccessToken("not-a-jwt")
		Expect(err).To(Equal(internal.ErrInvalidToken))
	})
})
