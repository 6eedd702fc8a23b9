package http

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	httpH "github.com/yungbote/learnpath-backend/internal/http/handlers"
	"github.com/yungbote/learnpath-backend/internal/modules/pathgen"
)

type recordingGenerator struct{ userID string }

func (g *recordingGenerator) Generate(_ context.Context, userID string, req pathgen.PathRequest) (learningpath.LearningPath, error) {
	g.userID = userID
	return learningpath.LearningPath{UserID: userID, UserQuery: req.UserQuery}, nil
}

func newTestRouter(gen httpH.PathGenerator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		PathHandler:   httpH.NewPathHandler(nil, gen, nil),
		HealthHandler: httpH.NewHealthHandler(),
	})
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&recordingGenerator{}).ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestGatewayClaimsResolveUser(t *testing.T) {
	gen := &recordingGenerator{}
	adapter := ginadapter.New(newTestRouter(gen))

	resp, err := adapter.ProxyWithContext(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: nethttp.MethodPost,
		Path:       "/learning-paths",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"user_query":"Quiero aprender desarrollo web backend con Python","user_level":"beginner","time_per_week":5,"num_courses":5,"user_id":"body-user"}`,
		RequestContext: events.APIGatewayProxyRequestContext{
			Authorizer: map[string]interface{}{
				"claims": map[string]interface{}{"sub": "cognito-sub"},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	require.Equal(t, "cognito-sub", gen.userID)

	var body pathgen.PathResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	require.Equal(t, "cognito-sub", body.UserID)
}
