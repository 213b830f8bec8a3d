// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package pkginfo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvratio/pkginfo"
)

var _ = Describe("Version info", func() {
	var saved string

	BeforeEach(func() {
		saved = pkginfo.Version
	})

	AfterEach(func() {
		pkginfo.Version = saved
	})

	It("prefers the release version", func() {
		pkginfo.Version = "1.2.0"
		Expect(pkginfo.VersionOrDev()).To(Equal("1.2.0"))
		Expect(pkginfo.UserAgent()).To(HavePrefix("pvratio/1.2.0 "))
		Expect(pkginfo.BuildVersionString()).To(HavePrefix("pvratio 1.2.0 "))
	})

	It("always reports some version", func() {
		pkginfo.Version = ""
		Expect(pkginfo.VersionOrDev()).NotTo(BeEmpty())
	})
})
