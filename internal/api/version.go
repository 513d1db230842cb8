package api

// Version identifies the trainer build in responses and headers.
const Version = "0.3.0"
