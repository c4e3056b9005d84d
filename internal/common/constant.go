package common

// AuthorizationHeaderName carries the bearer access token on proxy requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "

// VKTokenCacheKey prefixes the local cache keys holding StoredVkToken records.
const VKTokenCacheKey = "crossposter.vk_token"
