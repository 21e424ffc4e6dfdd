package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const dashboardScript = `<script>
function sendData() {
  var fields = ["inputdoc", "aialgo", "processar", "reset"];
  for (var i = 0; i < fields.length; i++) {
    document.getElementById(fields[i]).disabled = true;
  }
  document.getElementById("inputdata").style.display = "none";
  document.getElementById("loading").style.display = "block";
  window.location.href = "/process/" +
    encodeURIComponent(document.getElementById("aialgo").value) + "/" +
    encodeURIComponent(document.getElementById("project").value) + "/" +
    encodeURIComponent(document.getElementById("inputdoc").value);
}
</script>
`

// Dashboard renders the page and model selectors for a project.
func Dashboard(data DashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		m := newMarkup(w)
		m.raw("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\" />\n")
		m.raw(noCacheMeta)
		m.raw("<title>GenAI Dashboard</title>\n")
		m.raw(dashboardScript)
		m.raw("</head>\n<body>\n<h2>GenAI Dashboard</h2>\n<h4>\n")
		m.raw(`<span style="color: red"><b>Atenção:</b></span>&nbsp;Para os geradores de documento e script, o item de destino do Wiki não pode existir!<br />` + "\n")
		m.raw(`<span style="color: red"><b>Warning:</b></span>&nbsp;For documents and scripts generator, the destination item must not exist in Wiki!<br />` + "\n")
		m.raw("</h4>\n<div id=\"inputdata\">\n")

		m.raw(`<input type="hidden" name="project" id="project" value="`)
		m.text(data.ProjectID)
		m.raw("\" />\n")

		m.raw(`<label for="inputdoc">Select Document / Selecione o Documento:</label>` + "\n")
		m.raw(`<select name="inputdoc" id="inputdoc">` + "\n")
		if m.err == nil {
			m.err = PageOptions(data.Pages).Render(ctx, w)
		}
		m.raw("</select>\n<br /><br />\n")

		m.raw(`<label for="aialgo">Select Model / Selecione o Modelo</label>&nbsp;` + "\n")
		m.raw(`<select name="aialgo" id="aialgo">` + "\n")
		for _, model := range data.Models {
			m.raw(`<option value="`)
			m.text(model.Value)
			m.raw(`">`)
			m.text(model.Label)
			m.raw("</option>\n")
		}
		m.raw("</select>\n<br /><br />\n")

		m.raw(`<button id="processar" onclick="sendData()">Processar / Process</button>` + "\n")
		m.raw(`<input type="reset" id="reset" name="reset" value="Reset" onclick="window.location.reload()" />` + "\n")
		m.raw(`<br /><br /><a href="javascript:history.back()">Go Back</a>` + "\n")
		m.raw("</div>\n")

		m.raw(`<div id="loading" style="display: none; text-align: center">` + "\n")
		m.raw(`<img src="`)
		m.url(LoadingImagePath)
		m.raw(`" alt="Processing" width="180" height="180" />` + "\n")
		m.raw("</div>\n</body>\n</html>\n")

		return m.err
	})
}
