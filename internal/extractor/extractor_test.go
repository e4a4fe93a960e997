package extractor

import (
	"errors"
	"strings"
	"testing"

	"github.com/mikey/fraudguard/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestExtractor() *Extractor {
	logger := zap.NewNop()
	return New(utils.NewTextProcessor(logger), logger)
}

func TestIsWebmailURL(t *testing.T) {
	assert.True(t, IsWebmailURL("https://mail.google.com/mail/u/0/#inbox/123"))
	assert.True(t, IsWebmailURL("https://MAIL.GOOGLE.COM/"))
	assert.False(t, IsWebmailURL("https://example.com/mail.google.com"))
	assert.False(t, IsWebmailURL("not a url"))
	assert.False(t, IsWebmailURL(""))
}

func TestFromHTML_GmailPage(t *testing.T) {
	page := `<html><head><title>Your invoice - me@x.com - Gmail</title></head><body>
		<h2 class="hP">Your   invoice</h2>
		<span class="gD">billing@bank.example</span>
		<div class="ii gt">short</div>
		<div class="a3s aiL"><p>Dear customer,</p><p>Please   pay now.<br>Thanks</p></div>
	</body></html>`

	c := newTestExtractor().FromHTMLString(page)
	assert.Equal(t, "Dear customer,\n\nPlease pay now.\nThanks", c.Text)
	assert.Equal(t, "billing@bank.example", c.Source)
	assert.Equal(t, "Your invoice", c.Subject)
}

func TestFromHTML_AlternativeContainer(t *testing.T) {
	page := `<body><div class="message-part">first part</div><div class="message-part">second, longer part</div></body>`

	c := newTestExtractor().FromHTMLString(page)
	assert.Equal(t, "first part", c.Text)
}

func TestFromHTML_LongestContainer(t *testing.T) {
	page := `<body><div class="msg">tiny</div><div class="ii gt">the longest text of all</div><div class="msg">medium text</div></body>`

	c := newTestExtractor().FromHTMLString(page)
	assert.Equal(t, "the longest text of all", c.Text)
}

func TestFromHTML_SourceFromHeaders(t *testing.T) {
	page := `<body>
		<div class="adn">no address here</div>
		<div class="hI"><div>first@x.com</div><div>to me</div></div>
		<div class="adn"><div>second@y.com</div><div>cc</div></div>
		<div class="msg">body</div>
	</body>`

	c := newTestExtractor().FromHTMLString(page)
	assert.Equal(t, "second@y.com", c.Source)
}

func TestFromHTML_SubjectFromTitle(t *testing.T) {
	e := newTestExtractor()

	c := e.FromHTMLString(`<html><head><title>Win a prize - Gmail</title></head><body><div class="msg">x</div></body></html>`)
	assert.Equal(t, "Win a prize", c.Subject)

	c = e.FromHTMLString(`<html><head><title>Gmail - Inbox</title></head><body><div class="msg">x</div></body></html>`)
	assert.Empty(t, c.Subject)
}

func TestFromHTML_BodyFallback(t *testing.T) {
	page := `<html><head><script>var x = 1;</script></head><body><p>plain page</p><script>ignored()</script></body></html>`

	c := newTestExtractor().FromHTMLString(page)
	assert.Equal(t, "plain page", c.Text)
}

func TestFromHTML_Placeholder(t *testing.T) {
	e := newTestExtractor()

	c := e.FromHTMLString(`<html><body></body></html>`)
	assert.Equal(t, PlaceholderText, c.Text)
	assert.Equal(t, PlaceholderSource, c.Source)
	assert.Equal(t, PlaceholderSubject, c.Subject)

	// only empty fields are filled
	c = e.FromHTMLString(`<html><head><title>Kept subject</title></head><body></body></html>`)
	assert.Equal(t, PlaceholderText, c.Text)
	assert.Equal(t, PlaceholderSource, c.Source)
	assert.Equal(t, "Kept subject", c.Subject)

	c = e.FromHTMLString("")
	assert.Equal(t, PlaceholderText, c.Text)
}

const plainMessage = "From: \"Bank\" <alerts@bank.example>\r\n" +
	"To: me@example.com\r\n" +
	"Subject: =?UTF-8?Q?Caf=C3=A9_alert?=\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Verify   your account\r\n" +
	"now.\r\n"

const multipartMessage = "From: promo@shop.example\r\n" +
	"Subject: Sale\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=XYZ\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><p>Only <b>html</b> here</p></body></html>\r\n" +
	"--XYZ--\r\n"

func TestFromMessage_Plain(t *testing.T) {
	c, err := newTestExtractor().FromMessage(strings.NewReader(plainMessage))
	require.NoError(t, err)
	assert.Equal(t, "alerts@bank.example", c.Source)
	assert.Equal(t, "Café alert", c.Subject)
	assert.Equal(t, "Verify your account\nnow.", c.Text)
}

func TestFromMessage_HTMLFallback(t *testing.T) {
	c, err := newTestExtractor().FromMessage(strings.NewReader(multipartMessage))
	require.NoError(t, err)
	assert.Equal(t, "promo@shop.example", c.Source)
	assert.Equal(t, "Sale", c.Subject)
	assert.Equal(t, "Only html here", c.Text)
}

func TestFromMessage_EmptyBody(t *testing.T) {
	msg := "From: a@b.c\r\nSubject: Nothing\r\n\r\n"

	c, err := newTestExtractor().FromMessage(strings.NewReader(msg))
	require.NoError(t, err)
	assert.Equal(t, PlaceholderText, c.Text)
	assert.Equal(t, "a@b.c", c.Source)
	assert.Equal(t, "Nothing", c.Subject)
}

func TestFromMessage_BadHeader(t *testing.T) {
	_, err := newTestExtractor().FromMessage(strings.NewReader("this is not a header\r\n"))
	assert.Error(t, err)
}

func TestReadMailbox(t *testing.T) {
	mbox := "From alerts@bank.example Mon Jan  1 00:00:00 2024\n" +
		strings.ReplaceAll(plainMessage, "\r\n", "\n") +
		"\n" +
		"From promo@shop.example Mon Jan  1 00:00:01 2024\n" +
		strings.ReplaceAll(multipartMessage, "\r\n", "\n") +
		"\n"

	var got []Content
	err := newTestExtractor().ReadMailbox(strings.NewReader(mbox), func(i int, c Content) error {
		assert.Equal(t, len(got), i)
		got = append(got, c)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alerts@bank.example", got[0].Source)
	assert.Equal(t, "promo@shop.example", got[1].Source)
}

func TestReadMailbox_StopsOnCallbackError(t *testing.T) {
	mbox := "From a@b Mon Jan  1 00:00:00 2024\n" + strings.ReplaceAll(plainMessage, "\r\n", "\n") + "\n" +
		"From a@b Mon Jan  1 00:00:00 2024\n" + strings.ReplaceAll(plainMessage, "\r\n", "\n") + "\n"

	stop := errors.New("stop")
	calls := 0
	err := newTestExtractor().ReadMailbox(strings.NewReader(mbox), func(int, Content) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}
