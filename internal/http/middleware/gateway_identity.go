package middleware

import (
	"strings"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/learnpath-backend/internal/platform/ctxutil"
)

// SubjectKey is the gin context key holding the authenticated subject.
const SubjectKey = "auth_subject"

// AttachGatewayIdentity copies the authorizer subject of an API Gateway proxy
// event into the request. Requests that did not come through the gateway
// pass untouched.
func AttachGatewayIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := gatewaySubject(c)
		if sub != "" {
			c.Set(SubjectKey, sub)
			if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
				td.UserID = sub
			}
		}
		c.Next()
	}
}

func gatewaySubject(c *gin.Context) string {
	ctx := c.Request.Context()
	if rc, ok := core.GetAPIGatewayContextFromContext(ctx); ok {
		if sub := subjectFromAuthorizer(rc.Authorizer); sub != "" {
			return sub
		}
	}
	if rc, ok := core.GetAPIGatewayV2ContextFromContext(ctx); ok && rc.Authorizer != nil {
		if rc.Authorizer.JWT != nil {
			if sub := strings.TrimSpace(rc.Authorizer.JWT.Claims["sub"]); sub != "" {
				return sub
			}
		}
		if sub, _ := rc.Authorizer.Lambda["sub"].(string); strings.TrimSpace(sub) != "" {
			return strings.TrimSpace(sub)
		}
	}
	return ""
}

// subjectFromAuthorizer reads claims.sub (Cognito user pool authorizer) or a
// top-level sub (Lambda authorizer context).
func subjectFromAuthorizer(auth map[string]interface{}) string {
	if auth == nil {
		return ""
	}
	if claims, ok := auth["claims"].(map[string]interface{}); ok {
		if sub, _ := claims["sub"].(string); strings.TrimSpace(sub) != "" {
			return strings.TrimSpace(sub)
		}
	}
	if sub, _ := auth["sub"].(string); strings.TrimSpace(sub) != "" {
		return strings.TrimSpace(sub)
	}
	return ""
}

// Subject returns the authenticated subject attached to c, if any.
func Subject(c *gin.Context) string {
	return c.GetString(SubjectKey)
}
