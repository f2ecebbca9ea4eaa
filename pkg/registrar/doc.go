// Package registrar is the self-service account registration HTTP
// service. Invited users register through a form; valid requests create a
// unix account with useradd and record the registration so an invitation
// can only be used once.
package registrar
