package handlers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	learnerToken, learnerID := s.signUp(t, "Lena", "lena@example.com")
	teacherToken, teacherID := s.signUp(t, "Tom", "tom@example.com")

	status, body := s.do(t, "POST", "/api/v1/sessions/propose", learnerToken, fiber.Map{"teacher_id": teacherID, "skill": "Guitar"})
	require.Equal(t, fiber.StatusCreated, status, body)
	session := body["session"].(map[string]interface{})
	sessionID := session["id"].(string)
	assert.Equal(t, "pending", session["status"])

	status, _ = s.do(t, "POST", "/api/v1/sessions/propose", learnerToken, fiber.Map{"teacher_id": teacherID, "skill": "Guitar"})
	assert.Equal(t, fiber.StatusBadRequest, status, "duplicate proposal")

	status, body = s.do(t, "GET", "/api/v1/sessions/incoming", teacherToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["sessions"], 1)

	status, _ = s.do(t, "PUT", "/api/v1/sessions/"+sessionID+"/accept", learnerToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status, "only the teacher may answer")

	status, body = s.do(t, "PUT", "/api/v1/sessions/"+sessionID+"/accept", teacherToken, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "accepted", body["session"].(map[string]interface{})["status"])

	status, body = s.do(t, "PUT", "/api/v1/sessions/"+sessionID+"/complete", learnerToken, fiber.Map{"rating": 5, "comment": "great"})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "accepted", body["session"].(map[string]interface{})["status"])

	status, _ = s.do(t, "PUT", "/api/v1/sessions/"+sessionID+"/complete", learnerToken, fiber.Map{"rating": 5})
	assert.Equal(t, fiber.StatusBadRequest, status, "already completed")

	status, body = s.do(t, "PUT", "/api/v1/sessions/"+sessionID+"/complete", teacherToken, fiber.Map{"rating": 4})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "completed", body["session"].(map[string]interface{})["status"])

	for _, token := range []string{learnerToken, teacherToken} {
		status, body = s.do(t, "PUT", "/api/v1/sessions/"+sessionID+"/complete", token, fiber.Map{"rating": 5})
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Contains(t, body["error"], "already completed")
	}

	_, learner := s.do(t, "GET", "/api/v1/users/me", learnerToken, nil)
	assert.Equal(t, float64(2), learner["credits"])
	assert.Equal(t, 4.0, learner["rating"])

	_, profile := s.do(t, "GET", "/api/v1/users/"+learnerID, teacherToken, nil)
	assert.Equal(t, "Lena", profile["first_name"])
	assert.Len(t, profile["reviews"], 1)

	_, teacher := s.do(t, "GET", "/api/v1/users/me", teacherToken, nil)
	assert.Equal(t, float64(4), teacher["credits"])
	assert.Equal(t, 5.0, teacher["rating"])

	status, body = s.do(t, "GET", "/api/v1/sessions/with/"+teacherID, learnerToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["sessions"], 1)
}

func TestCompleteSessionValidation(t *testing.T) {
	s := newTestServer(t)
	learnerToken, _ := s.signUp(t, "Lena", "lena@example.com")
	_, teacherID := s.signUp(t, "Tom", "tom@example.com")

	_, body := s.do(t, "POST", "/api/v1/sessions/propose", learnerToken, fiber.Map{"teacher_id": teacherID, "skill": "Guitar"})
	sessionID := body["session"].(map[string]interface{})["id"].(string)

	status, _ := s.do(t, "PUT", "/api/v1/sessions/"+sessionID+"/complete", learnerToken, fiber.Map{"rating": 9})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, "PUT", "/api/v1/sessions/"+sessionID+"/complete", learnerToken, fiber.Map{"rating": 5})
	assert.Equal(t, fiber.StatusBadRequest, status, "pending sessions cannot be completed")
	assert.Contains(t, body["error"], "state")
}

func TestSessionNotFoundAndBadIDs(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp(t, "Lena", "lena@example.com")

	status, _ := s.do(t, "PUT", "/api/v1/sessions/"+uuid.NewString()+"/accept", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = s.do(t, "PUT", "/api/v1/sessions/not-a-uuid/accept", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, "POST", "/api/v1/sessions/propose", token, fiber.Map{"teacher_id": uuid.NewString(), "skill": "Guitar"})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = s.do(t, "POST", "/api/v1/sessions/propose", token, fiber.Map{"teacher_id": "x", "skill": "Guitar"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestDisputeOverHTTP(t *testing.T) {
	s := newTestServer(t)
	learnerToken, _ := s.signUp(t, "Lena", "lena@example.com")
	teacherToken, teacherID := s.signUp(t, "Tom", "tom@example.com")

	_, body := s.do(t, "POST", "/api/v1/sessions/propose", learnerToken, fiber.Map{"teacher_id": teacherID, "skill": "Guitar"})
	sessionID := body["session"].(map[string]interface{})["id"].(string)
	s.do(t, "PUT", "/api/v1/sessions/"+sessionID+"/accept", teacherToken, nil)

	status, _ := s.do(t, "PUT", "/api/v1/sessions/"+sessionID+"/dispute", learnerToken, fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, "PUT", "/api/v1/sessions/"+sessionID+"/dispute", learnerToken, fiber.Map{"reason": "no show"})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "disputed", body["session"].(map[string]interface{})["status"])

	status, _ = s.do(t, "PUT", "/api/v1/sessions/"+sessionID+"/complete", teacherToken, fiber.Map{"rating": 5})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestUpdateSkillsNormalizes(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp(t, "Ada", "ada@example.com")

	status, body := s.do(t, "PUT", "/api/v1/users/skills", token, fiber.Map{
		"skills":        []string{" Go ", "go", "Chess"},
		"skills_wanted": []string{"Spanish", ""},
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, []interface{}{"Go", "Chess"}, body["skills"])
	assert.Equal(t, []interface{}{"Spanish"}, body["skills_wanted"])
}
