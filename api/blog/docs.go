// Package blog holds the Swagger document served at /swagger/.
package blog

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "AussieBroadWAN Team",
			"url": "https://github.com/aussiebroadwan/blog"
		},
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/livez": {
			"get": {
				"tags": [
					"Health"
				],
				"summary": "Health Check Endpoint",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "status, uptime, version",
						"schema": {
							"$ref": "#/definitions/blogsdk.HealthResponse"
						}
					}
				}
			}
		},
		"/readyz": {
			"get": {
				"tags": [
					"Health"
				],
				"summary": "Readiness Check Endpoint",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "ready",
						"schema": {
							"$ref": "#/definitions/blogsdk.HealthResponse"
						}
					},
					"503": {
						"description": "not ready",
						"schema": {
							"$ref": "#/definitions/blogsdk.HealthResponse"
						}
					}
				}
			}
		},
		"/v1/auth/register": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Register a new user",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "username, email, password, fullname",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/blogsdk.RegisterRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "created user",
						"schema": {
							"$ref": "#/definitions/blogsdk.UserProfile"
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					},
					"429": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					},
					"503": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/auth/login": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Log in with username and password",
				"consumes": [
					"application/x-www-form-urlencoded"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Username",
						"name": "username",
						"in": "formData",
						"required": true
					},
					{
						"type": "string",
						"description": "Password",
						"name": "password",
						"in": "formData",
						"required": true
					},
					{
						"type": "string",
						"description": "TOTP code, required when MFA is enabled",
						"name": "otp",
						"in": "formData",
						"required": false
					},
					{
						"type": "string",
						"description": "Must be 'password' when present",
						"name": "grant_type",
						"in": "formData",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "tokens",
						"schema": {
							"$ref": "#/definitions/blogsdk.TokenResponse"
						},
						"headers": {
							"Cache-Control": {
								"type": "string",
								"description": "no-store"
							}
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					},
					"429": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/auth/refresh": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Exchange a refresh token for a new access token",
				"consumes": [
					"application/x-www-form-urlencoded"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Refresh token from login",
						"name": "refresh_token",
						"in": "formData",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "tokens",
						"schema": {
							"$ref": "#/definitions/blogsdk.TokenResponse"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/auth/current_user": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Auth"
				],
				"summary": "Current user profile",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "profile",
						"schema": {
							"$ref": "#/definitions/blogsdk.UserProfile"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/auth/password": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Auth"
				],
				"summary": "Change password",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "current_password, new_password",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/blogsdk.ChangePasswordRequest"
						}
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/auth/mfa/enroll": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"MFA"
				],
				"summary": "Start TOTP enrollment",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "secret and otpauth URL",
						"schema": {
							"$ref": "#/definitions/blogsdk.MFAEnrollResponse"
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/auth/mfa/confirm": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"MFA"
				],
				"summary": "Confirm TOTP enrollment",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "6-digit TOTP code",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/blogsdk.MFACodeRequest"
						}
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/auth/mfa": {
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"MFA"
				],
				"summary": "Disable MFA",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "6-digit TOTP code",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/blogsdk.MFACodeRequest"
						}
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/posts": {
			"get": {
				"tags": [
					"Posts"
				],
				"summary": "List posts",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "posts",
						"schema": {
							"$ref": "#/definitions/blogsdk.PostList"
						}
					}
				}
			},
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Posts"
				],
				"summary": "Create a post",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "title, content",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/blogsdk.PostRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "created post",
						"schema": {
							"$ref": "#/definitions/blogsdk.PostResponse"
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/posts/{id}": {
			"get": {
				"tags": [
					"Posts"
				],
				"summary": "Get a post",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "post",
						"schema": {
							"$ref": "#/definitions/blogsdk.PostResponse"
						}
					},
					"404": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Posts"
				],
				"summary": "Update a post",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "title, content",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/blogsdk.PostRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "updated post",
						"schema": {
							"$ref": "#/definitions/blogsdk.PostResponse"
						}
					},
					"404": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Posts"
				],
				"summary": "Delete a post",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"404": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/posts/{id}/like": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Likes"
				],
				"summary": "Like a post",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					},
					"404": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/posts/{id}/unlike": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Likes"
				],
				"summary": "Remove a like",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					},
					"404": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/posts/{id}/favorite": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Favorites"
				],
				"summary": "Favorite a post",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					},
					"404": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/posts/{id}/unfavorite": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Favorites"
				],
				"summary": "Remove a favorite",
				"parameters": [
					{
						"type": "integer",
						"description": "Post ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					},
					"404": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/blogsdk.ErrorResponse"
						}
					}
				}
			}
		},
		"/v1/liked-posts": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Likes"
				],
				"summary": "Posts the caller liked",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "posts",
						"schema": {
							"$ref": "#/definitions/blogsdk.PostList"
						}
					}
				}
			}
		},
		"/v1/favorite-posts": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Favorites"
				],
				"summary": "Posts the caller favorited",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "posts",
						"schema": {
							"$ref": "#/definitions/blogsdk.PostList"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"blogsdk.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				},
				"error_description": {
					"type": "string"
				}
			}
		},
		"blogsdk.RegisterRequest": {
			"type": "object",
			"properties": {
				"username": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"fullname": {
					"type": "string"
				}
			}
		},
		"blogsdk.UserProfile": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"username": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"fullname": {
					"type": "string"
				},
				"mfa_enabled": {
					"type": "boolean"
				}
			}
		},
		"blogsdk.TokenResponse": {
			"type": "object",
			"properties": {
				"access_token": {
					"type": "string"
				},
				"refresh_token": {
					"type": "string"
				},
				"token_type": {
					"type": "string"
				},
				"expires_in": {
					"type": "integer"
				}
			}
		},
		"blogsdk.ChangePasswordRequest": {
			"type": "object",
			"properties": {
				"current_password": {
					"type": "string"
				},
				"new_password": {
					"type": "string"
				}
			}
		},
		"blogsdk.MFAEnrollResponse": {
			"type": "object",
			"properties": {
				"secret": {
					"type": "string"
				},
				"otpauth_url": {
					"type": "string"
				}
			}
		},
		"blogsdk.MFACodeRequest": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				}
			}
		},
		"blogsdk.PostRequest": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string"
				},
				"content": {
					"type": "string"
				}
			}
		},
		"blogsdk.PostResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"title": {
					"type": "string"
				},
				"content": {
					"type": "string"
				},
				"author_id": {
					"type": "integer"
				},
				"likes": {
					"type": "integer"
				},
				"favorites": {
					"type": "integer"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"blogsdk.PostList": {
			"type": "object",
			"properties": {
				"posts": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/blogsdk.PostResponse"
					}
				}
			}
		},
		"blogsdk.HealthChecks": {
			"type": "object",
			"properties": {
				"database": {
					"type": "string"
				},
				"cache": {
					"type": "string"
				}
			}
		},
		"blogsdk.HealthResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"uptime": {
					"type": "string"
				},
				"version": {
					"type": "string"
				},
				"checks": {
					"$ref": "#/definitions/blogsdk.HealthChecks"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "JWT access token. Format: \"Bearer {token}\".",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "0.1.0",
	Host:			 "localhost:8080",
	BasePath:		 "/",
	Schemes:		  []string{"http", "https"},
	Title:			"Blog API",
	Description:	  "Blogging backend: accounts, bearer token authentication, posts, likes and favorites.\n\nAccess tokens are HMAC-signed JWTs valid for 30 minutes by default.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
