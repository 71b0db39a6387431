package utils

const DefaultBufferSize = 1024 * 64 // 64KB read buffer
const ToolUserAgent = "dltime-cli"
