package smtptest

// smtptest runs SMTP servers inside the test process and generates the TLS
// material they need, so tests can send real mail over loopback and read it
// back.
