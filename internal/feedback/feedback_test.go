package feedback_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/feedback-management/internal"
	designationDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/designation"
	feedbackDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/feedback"
	userDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/user"
	"github.com/frahmantamala/feedback-management/internal/core/events"
	"github.com/frahmantamala/feedback-management/internal/core/testdb"
	"github.com/frahmantamala/feedback-management/internal/employee"
	employeePostgres "github.com/frahmantamala/feedback-management/internal/employee/postgres"
	"github.com/frahmantamala/feedback-management/internal/feedback"
	feedbackPostgres "github.com/frahmantamala/feedback-management/internal/feedback/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestFeedback(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Feedback Suite")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fieldCodes(err error) map[string]string {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	details, ok := appErr.Details.(internal.ValidationErrors)
	Expect(ok).To(BeTrue(), "expected field errors, got %v", appErr)
	out := map[string]string{}
	for _, fe := range details.Errors {
		out[fe.Field] = fe.Code
	}
	return out
}

// fixture is a small company: two engineers in different departments and a
// manager, plus a question bank with one retired question.
type fixture struct {
	db        *testdb.DB
	service   *feedback.Service
	publisher *recordingPublisher

	engineer        int64
	seniorEngineer  int64
	manager         int64
	alice, bob, cat *internal.User
	aliceEmp        int64
	bobEmp          int64
	catEmp          int64
	q1, q2, retired int64
}

func newFixture() *fixture {
	f := &fixture{db: testdb.MustOpen(), publisher: &recordingPublisher{}}
	employees := employeePostgres.NewEmployeeRepository(f.db.Gorm, f.db.SQLX)
	f.service = feedback.NewService(
		feedbackPostgres.NewFeedbackRepository(f.db.Gorm),
		employee.NewService(employees, testLogger()),
		f.publisher,
		testLogger(),
	)

	f.engineer = f.designation("Engineer")
	f.seniorEngineer = f.designation("Senior Engineer")
	f.manager = f.designation("Manager")

	f.alice, f.aliceEmp = f.employee(employees, "alice", "Alice", "Smith", &f.engineer, "Platform Team")
	f.bob, f.bobEmp = f.employee(employees, "bob", "Bob", "Jones", &f.seniorEngineer, "Data")
	f.cat, f.catEmp = f.employee(employees, "cat", "", "", &f.manager, "Platform 100%")

	f.q1 = f.question("How clear is their communication?", true)
	f.q2 = f.question("How reliable are they?", true)
	f.retired = f.question("Retired question", false)
	return f
}

func (f *fixture) designation(name string) int64 {
	d := &designationDatamodel.Designation{Name: name, CreatedAt: time.Now().UTC()}
	Expect(f.db.Gorm.Create(d).Error).To(Succeed())
	return d.ID
}

func (f *fixture) user(username, first, last string) *internal.User {
	now := time.Now().UTC()
	u := &userDatamodel.User{
		Username:     username,
		PasswordHash: "x",
		FirstName:    first,
		LastName:     last,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	Expect(f.db.Gorm.Create(u).Error).To(Succeed())
	return &internal.User{ID: u.ID, Username: username}
}

func (f *fixture) employee(repo *employeePostgres.EmployeeRepository, username, first, last string, designationID *int64, department string) (*internal.User, int64) {
	u := f.user(username, first, last)
	emp, _, err := repo.EnsureForUser(context.Background(), u.ID, employee.Profile{
		DesignationID: designationID,
		Department:    &department,
	})
	Expect(err).NotTo(HaveOccurred())
	return u, emp.ID
}

func (f *fixture) question(text string, active bool) int64 {
	q := &feedbackDatamodel.Question{
		Text:         text,
		FeedbackType: "employee",
		IsActive:     active,
		CreatedAt:    time.Now().UTC(),
	}
	Expect(f.db.Gorm.Create(q).Error).To(Succeed())
	return q.ID
}

func (f *fixture) submit(caller *internal.User, target int64, at time.Time) *feedback.Submission {
	sub, err := f.service.Submit(context.Background(), caller, feedback.SubmitFeedbackDTO{
		TargetEmployeeID: target,
		Answers:          []feedback.AnswerDTO{{QuestionID: f.q1, Rating: 4}},
	})
	Expect(err).NotTo(HaveOccurred())
	Expect(f.db.Gorm.Model(&feedbackDatamodel.Submission{}).
		Where("id = ?", sub.ID).
		Update("created_at", at.UTC()).Error).To(Succeed())
	return sub
}

func (f *fixture) count(model interface{}) int64 {
	var n int64
	Expect(f.db.Gorm.Model(model).Count(&n).Error).To(Succeed())
	return n
}

func ids(subs []*feedback.Submission) []int64 {
	out := make([]int64, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.ID)
	}
	return out
}

var _ = Describe("Feedback Service", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		f = newFixture()
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(f.db.Close()).To(Succeed())
	})

	Describe("Submit", func() {
		It("should store the answers under the caller's employee", func() {
			sub, err := f.service.Submit(ctx, f.alice, feedback.SubmitFeedbackDTO{
				TargetEmployeeID: f.bobEmp,
				Answers: []feedback.AnswerDTO{
					{QuestionID: f.q2, Rating: 5, Comment: "always ships"},
					{QuestionID: f.q1, Rating: 3},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(sub.SubmittedBy).To(Equal(f.aliceEmp))
			Expect(sub.SubmittedByEmployee).To(Equal("Alice Smith (Engineer)"))
			Expect(*sub.TargetEmployeeID).To(Equal(f.bobEmp))
			Expect(sub.Answers).To(HaveLen(2))
			Expect(sub.Answers[0].QuestionID).To(Equal(f.q2))
			Expect(sub.Answers[0].Question).To(Equal("How reliable are they?"))
			Expect(sub.Answers[0].Rating).To(Equal(5))
			Expect(sub.Answers[0].Comment).To(Equal("always ships"))
			Expect(sub.Answers[1].Comment).To(BeEmpty())

			Expect(f.publisher.events).To(HaveLen(1))
			Expect(f.publisher.events[0].EventType()).To(Equal(events.EventTypeFeedbackSubmitted))
		})

		It("should fall back to the username in the display name", func() {
			sub, err := f.service.Submit(ctx, f.cat, feedback.SubmitFeedbackDTO{
				TargetEmployeeID: f.aliceEmp,
				Answers:          []feedback.AnswerDTO{{QuestionID: f.q1, Rating: 1}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(sub.SubmittedByEmployee).To(Equal("cat (Manager)"))
		})

		It("should roll back everything when a question is retired", func() {
			_, err := f.service.Submit(ctx, f.alice, feedback.SubmitFeedbackDTO{
				TargetEmployeeID: f.bobEmp,
				Answers: []feedback.AnswerDTO{
					{QuestionID: f.q1, Rating: 4},
					{QuestionID: f.retired, Rating: 4},
				},
			})
			Expect(fieldCodes(err)).To(Equal(map[string]string{
				"answers[1].question_id": string(internal.ErrCodeInvalidQuestion),
			}))
			Expect(f.count(&feedbackDatamodel.Submission{})).To(BeZero())
			Expect(f.count(&feedbackDatamodel.Answer{})).To(BeZero())
			Expect(f.publisher.events).To(BeEmpty())
		})

		It("should reject unknown questions", func() {
			_, err := f.service.Submit(ctx, f.alice, feedback.SubmitFeedbackDTO{
				TargetEmployeeID: f.bobEmp,
				Answers:          []feedback.AnswerDTO{{QuestionID: 9999, Rating: 4}},
			})
			Expect(fieldCodes(err)).To(HaveKeyWithValue("answers[0].question_id", string(internal.ErrCodeInvalidQuestion)))
			Expect(f.count(&feedbackDatamodel.Submission{})).To(BeZero())
		})

		It("should reject a question answered twice", func() {
			_, err := f.service.Submit(ctx, f.alice, feedback.SubmitFeedbackDTO{
				TargetEmployeeID: f.bobEmp,
				Answers: []feedback.AnswerDTO{
					{QuestionID: f.q1, Rating: 4},
					{QuestionID: f.q1, Rating: 2},
				},
			})
			Expect(fieldCodes(err)).To(HaveKeyWithValue("answers[1].question_id", string(internal.ErrCodeDuplicateQuestion)))
		})

		It("should report every invalid rating", func() {
			_, err := f.service.Submit(ctx, f.alice, feedback.SubmitFeedbackDTO{
				TargetEmployeeID: f.bobEmp,
				Answers: []feedback.AnswerDTO{
					{QuestionID: f.q1, Rating: 0},
					{QuestionID: f.q2, Rating: 6},
				},
			})
			codes := fieldCodes(err)
			Expect(codes).To(HaveKeyWithValue("answers[0].rating", string(internal.ErrCodeInvalidRating)))
			Expect(codes).To(HaveKeyWithValue("answers[1].rating", string(internal.ErrCodeInvalidRating)))
		})

		It("should require at least one answer and a target", func() {
			_, err := f.service.Submit(ctx, f.alice, feedback.SubmitFeedbackDTO{})
			codes := fieldCodes(err)
			Expect(codes).To(HaveKey("answers"))
			Expect(codes).To(HaveKey("target_employee_id"))
		})

		It("should reject an unknown target employee", func() {
			_, err := f.service.Submit(ctx, f.alice, feedback.SubmitFeedbackDTO{
				TargetEmployeeID: 9999,
				Answers:          []feedback.AnswerDTO{{QuestionID: f.q1, Rating: 4}},
			})
			Expect(fieldCodes(err)).To(HaveKeyWithValue("target_employee_id", string(internal.ErrCodeInvalidEmployee)))
		})

		It("should refuse callers without an employee record", func() {
			ghost := f.user("ghost", "", "")
			_, err := f.service.Submit(ctx, ghost, feedback.SubmitFeedbackDTO{
				TargetEmployeeID: f.bobEmp,
				Answers:          []feedback.AnswerDTO{{QuestionID: f.q1, Rating: 4}},
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(appErr.Code).To(Equal(internal.ErrCodeNoEmployeeProfile))
			Expect(f.count(&feedbackDatamodel.Submission{})).To(BeZero())
		})
	})

	Describe("ListMine", func() {
		It("should list only the caller's submissions, newest first", func() {
			older := f.submit(f.alice, f.bobEmp, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
			newer := f.submit(f.alice, f.catEmp, time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC))
			f.submit(f.bob, f.aliceEmp, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

			mine, err := f.service.ListMine(ctx, f.alice)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(mine)).To(Equal([]int64{newer.ID, older.ID}))
			for _, s := range mine {
				Expect(s.SubmittedBy).To(Equal(f.aliceEmp))
			}
		})

		It("should return an empty list for callers without an employee record", func() {
			f.submit(f.alice, f.bobEmp, time.Now())
			mine, err := f.service.ListMine(ctx, f.user("ghost", "", ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).NotTo(BeNil())
			Expect(mine).To(BeEmpty())
		})

		It("should list another employee's submissions by id", func() {
			f.submit(f.alice, f.bobEmp, time.Now())
			bobs := f.submit(f.bob, f.aliceEmp, time.Now())

			listed, err := f.service.ListByEmployee(ctx, f.bobEmp)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(listed)).To(Equal([]int64{bobs.ID}))
		})
	})

	Describe("AdminFilter", func() {
		var dec31, jan1, jan31, feb1 *feedback.Submission

		BeforeEach(func() {
			dec31 = f.submit(f.alice, f.bobEmp, time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC))
			jan1 = f.submit(f.bob, f.aliceEmp, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
			jan31 = f.submit(f.cat, f.aliceEmp, time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC))
			feb1 = f.submit(f.alice, f.catEmp, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		})

		It("should return everything without filters", func() {
			subs, err := f.service.AdminFilter(ctx, feedback.AdminFilterDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(subs)).To(Equal([]int64{feb1.ID, jan31.ID, jan1.ID, dec31.ID}))
		})

		It("should treat both date bounds as inclusive whole days", func() {
			subs, err := f.service.AdminFilter(ctx, feedback.AdminFilterDTO{StartDate: "2024-01-01", EndDate: "2024-01-31"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(subs)).To(Equal([]int64{jan31.ID, jan1.ID}))
		})

		It("should accept a single day", func() {
			subs, err := f.service.AdminFilter(ctx, feedback.AdminFilterDTO{StartDate: "2024-02-01", EndDate: "2024-02-01"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(subs)).To(Equal([]int64{feb1.ID}))
		})

		It("should match the designation by id", func() {
			subs, err := f.service.AdminFilter(ctx, feedback.AdminFilterDTO{Designation: feedback.FilterValue(itoa(f.engineer))})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(subs)).To(Equal([]int64{feb1.ID, dec31.ID}))
		})

		It("should match the designation name as a case-insensitive fragment", func() {
			subs, err := f.service.AdminFilter(ctx, feedback.AdminFilterDTO{Designation: "ENGIN"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(subs)).To(Equal([]int64{feb1.ID, jan1.ID, dec31.ID}))
		})

		It("should match the department as a case-insensitive fragment", func() {
			subs, err := f.service.AdminFilter(ctx, feedback.AdminFilterDTO{Department: "platform"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(subs)).To(Equal([]int64{feb1.ID, jan31.ID, dec31.ID}))
		})

		It("should treat LIKE wildcards literally", func() {
			subs, err := f.service.AdminFilter(ctx, feedback.AdminFilterDTO{Department: "100%"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(subs)).To(Equal([]int64{jan31.ID}))

			subs, err = f.service.AdminFilter(ctx, feedback.AdminFilterDTO{Department: "%"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(subs)).To(Equal([]int64{jan31.ID}))
		})

		It("should combine filters", func() {
			subs, err := f.service.AdminFilter(ctx, feedback.AdminFilterDTO{
				Designation: "engineer",
				Department:  "platform",
				StartDate:   "2024-01-01",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(subs)).To(Equal([]int64{feb1.ID}))
		})

		It("should reject malformed dates", func() {
			_, err := f.service.AdminFilter(ctx, feedback.AdminFilterDTO{StartDate: "01/01/2024", EndDate: "2024-02-30"})
			codes := fieldCodes(err)
			Expect(codes).To(HaveKeyWithValue("start_date", string(internal.ErrCodeInvalidDate)))
			Expect(codes).To(HaveKeyWithValue("end_date", string(internal.ErrCodeInvalidDate)))
		})

		It("should reject a start after the end", func() {
			_, err := f.service.AdminFilter(ctx, feedback.AdminFilterDTO{StartDate: "2024-02-01", EndDate: "2024-01-01"})
			Expect(fieldCodes(err)).To(HaveKeyWithValue("start_date", string(internal.ErrCodeInvalidDateRange)))
		})
	})
})

var _ = Describe("Feedback Handler", func() {
	var (
		f       *fixture
		handler *feedback.Handler
	)

	BeforeEach(func() {
		f = newFixture()
		handler = feedback.NewHandler(transportBase(), f.service)
	})

	AfterEach(func() {
		Expect(f.db.Close()).To(Succeed())
	})

	as := func(r *http.Request, u *internal.User) *http.Request {
		return r.WithContext(internal.ContextWithUser(r.Context(), u))
	}

	It("should ignore a submitter supplied in the body", func() {
		body := `{"submitted_by": ` + itoa(f.bobEmp) + `, "target_employee_id": ` + itoa(f.catEmp) +
			`, "answers": [{"question_id": ` + itoa(f.q1) + `, "rating": 5}]}`
		w := httptest.NewRecorder()
		handler.SubmitFeedback(w, as(httptest.NewRequest(http.MethodPost, "/feedback/submit", strings.NewReader(body)), f.alice))

		Expect(w.Code).To(Equal(http.StatusCreated))
		var sub feedback.Submission
		Expect(json.Unmarshal(w.Body.Bytes(), &sub)).To(Succeed())
		Expect(sub.SubmittedBy).To(Equal(f.aliceEmp))
	})

	It("should answer 400 with field errors for bad answers", func() {
		body := `{"target_employee_id": ` + itoa(f.catEmp) + `, "answers": [{"question_id": ` + itoa(f.retired) + `, "rating": 5}]}`
		w := httptest.NewRecorder()
		handler.SubmitFeedback(w, as(httptest.NewRequest(http.MethodPost, "/feedback/submit", strings.NewReader(body)), f.alice))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("answers[0].question_id"))
	})

	It("should answer 401 without a caller", func() {
		w := httptest.NewRecorder()
		handler.ListMyFeedback(w, httptest.NewRequest(http.MethodGet, "/feedback/my", nil))
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should render an empty history as an array", func() {
		w := httptest.NewRecorder()
		handler.ListMyFeedback(w, as(httptest.NewRequest(http.MethodGet, "/feedback/my", nil), f.alice))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"submissions":[]}`))
	})

	It("should narrow the history with employee_id", func() {
		f.submit(f.alice, f.bobEmp, time.Now())
		f.submit(f.bob, f.aliceEmp, time.Now())

		w := httptest.NewRecorder()
		handler.ListMyFeedback(w, as(httptest.NewRequest(http.MethodGet, "/feedback/my?employee_id="+itoa(f.bobEmp), nil), f.alice))
		Expect(w.Code).To(Equal(http.StatusOK))

		var body feedback.ListResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Submissions).To(HaveLen(1))
		Expect(body.Submissions[0].SubmittedBy).To(Equal(f.bobEmp))
	})

	It("should reject a non-numeric employee_id", func() {
		w := httptest.NewRecorder()
		handler.ListMyFeedback(w, as(httptest.NewRequest(http.MethodGet, "/feedback/my?employee_id=bob", nil), f.alice))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("INVALID_PARAMETER"))
	})

	It("should read the admin filter from the query string", func() {
		f.submit(f.alice, f.bobEmp, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
		f.submit(f.bob, f.aliceEmp, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

		w := httptest.NewRecorder()
		handler.AdminFilter(w, httptest.NewRequest(http.MethodGet, "/feedback/admin?designation=senior&start_date=2024-01-01&end_date=2024-01-31", nil))
		Expect(w.Code).To(Equal(http.StatusOK))

		var body feedback.ListResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Submissions).To(HaveLen(1))
		Expect(body.Submissions[0].SubmittedBy).To(Equal(f.bobEmp))
	})

	It("should accept a numeric designation in the admin filter body", func() {
		f.submit(f.alice, f.bobEmp, time.Now())
		f.submit(f.bob, f.aliceEmp, time.Now())

		w := httptest.NewRecorder()
		handler.AdminFilter(w, httptest.NewRequest(http.MethodPost, "/feedback/admin",
			strings.NewReader(`{"designation": `+itoa(f.engineer)+`}`)))
		Expect(w.Code).To(Equal(http.StatusOK))

		var body feedback.ListResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Submissions).To(HaveLen(1))
		Expect(body.Submissions[0].SubmittedBy).To(Equal(f.aliceEmp))
	})

	It("should answer 400 for a malformed date", func() {
		w := httptest.NewRecorder()
		handler.AdminFilter(w, httptest.NewRequest(http.MethodGet, "/feedback/admin?end_date=yesterday", nil))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeInvalidDate)))
	})
})

var _ = Describe("DesignationFilter", func() {
	DescribeTable("should split ids from name fragments",
		func(raw string, wantID *int64, wantName string) {
			id, name := feedback.DesignationFilter(raw)
			if wantID == nil {
				Expect(id).To(BeNil())
			} else {
				Expect(id).To(HaveValue(Equal(*wantID)))
			}
			Expect(name).To(Equal(wantName))
		},
		Entry("empty", "", nil, ""),
		Entry("plain id", "3", ptr(3), ""),
		Entry("leading zeros", "007", ptr(7), ""),
		Entry("explicit plus sign", "+3", nil, "+3"),
		Entry("negative number", "-3", nil, "-3"),
		Entry("name fragment", "engineer", nil, "engineer"),
		Entry("digits with spaces", " 3", nil, " 3"),
	)
})

func ptr(n int64) *int64 { return &n }
