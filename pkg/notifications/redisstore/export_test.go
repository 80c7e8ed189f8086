package redisstore

var (
	Encode = encode
	Decode = decode
)
